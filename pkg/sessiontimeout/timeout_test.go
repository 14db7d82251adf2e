package sessiontimeout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/looper"
	"github.com/opcua-stack/session-layer/pkg/session"
)

func TestArmFiresEvalSessionTimeoutEvent(t *testing.T) {
	l := looper.New(looper.Config{Name: "services"})
	var got uint32
	done := make(chan struct{})
	l.SetHandler(looper.HandlerFunc(func(e looper.Event) {
		if session.EventKind(e.Kind) == session.EventEvalSessionTimeout {
			atomic.StoreUint32(&got, e.ID)
			close(done)
		}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	m := New(Config{Looper: l})
	m.Arm(session.ID(5), 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EvalSessionTimeout")
	}
	assert.Equal(t, uint32(5), atomic.LoadUint32(&got))
}

func TestCancelPreventsFiring(t *testing.T) {
	l := looper.New(looper.Config{Name: "services"})
	fired := make(chan struct{}, 1)
	l.SetHandler(looper.HandlerFunc(func(e looper.Event) {
		fired <- struct{}{}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	m := New(Config{Looper: l})
	m.Arm(session.ID(1), 20*time.Millisecond)
	m.Cancel(session.ID(1))

	select {
	case <-fired:
		t.Fatal("timer fired after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}
