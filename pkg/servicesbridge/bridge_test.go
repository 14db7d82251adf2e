package servicesbridge

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/looper"
	"github.com/opcua-stack/session-layer/pkg/session"
)

func TestCloseAllConnectionsIdempotentWithZeroSessions(t *testing.T) {
	l := looper.New(looper.Config{Name: "services"})
	l.SetHandler(looper.HandlerFunc(func(looper.Event) {}))
	require.NoError(t, l.Run())
	defer l.Stop()

	b := New(Config{Services: l, ActiveSessionCount: func() int { return 0 }})

	done := make(chan struct{})
	go func() {
		require.NoError(t, b.CloseAllConnections(true))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CloseAllConnections did not return for the zero-session pre-check case")
	}
}

func TestCloseAllConnectionsWaitsForNotify(t *testing.T) {
	var posted uint32
	l := looper.New(looper.Config{Name: "services"})
	l.SetHandler(looper.HandlerFunc(func(e looper.Event) {
		if session.EventKind(e.Kind) == session.EventCloseAllConnections {
			atomic.StoreUint32(&posted, 1)
		}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	b := New(Config{Services: l, ActiveSessionCount: func() int { return 1 }})

	done := make(chan struct{})
	go func() {
		require.NoError(t, b.CloseAllConnections(false))
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("CloseAllConnections returned before being notified")
	default:
	}
	assert.Equal(t, uint32(1), atomic.LoadUint32(&posted))

	b.AllDisconnected(false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CloseAllConnections did not return after AllDisconnected")
	}
}

func TestOnSecureChannelEventTranslatesDisconnected(t *testing.T) {
	var got uint32
	gotCh := make(chan struct{}, 1)
	l := looper.New(looper.Config{Name: "services"})
	l.SetHandler(looper.HandlerFunc(func(e looper.Event) {
		if session.EventKind(e.Kind) == session.EventScDisconnected {
			atomic.StoreUint32(&got, e.ID)
			gotCh <- struct{}{}
		}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	b := New(Config{Services: l})
	require.NoError(t, b.OnSecureChannelEvent(ScEvent{Kind: ScEventDisconnected, ChannelID: 7}))

	select {
	case <-gotCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for translated ScDisconnected event")
	}
	assert.Equal(t, uint32(7), atomic.LoadUint32(&got))
}
