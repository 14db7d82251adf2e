package appdispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/session"
)

func TestActivatedSessionDeliveredToCallback(t *testing.T) {
	got := make(chan ActivatedSession, 1)
	d := New(Config{Capacity: 8, Callbacks: Callbacks{
		OnActivatedSession: func(ev ActivatedSession) { got <- ev },
	}})
	require.NoError(t, d.Run())
	defer d.Stop()

	require.NoError(t, d.PostActivatedSession(ActivatedSession{SessionID: session.ID(3), AppContext: "ctx"}))

	select {
	case ev := <-got:
		assert.Equal(t, session.ID(3), ev.SessionID)
		assert.Equal(t, "ctx", ev.AppContext)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ActivatedSession")
	}
}

func TestReceivedSessionResponseDeallocatesAfterCallback(t *testing.T) {
	var mu sync.Mutex
	var order []string

	d := New(Config{Capacity: 8, Callbacks: Callbacks{
		OnReceivedSessionResponse: func(ev ReceivedSessionResponse) {
			mu.Lock()
			order = append(order, "callback")
			mu.Unlock()
		},
	}})
	require.NoError(t, d.Run())
	defer d.Stop()

	done := make(chan struct{})
	dealloc := DeallocatorFunc(func(any) {
		mu.Lock()
		order = append(order, "dealloc")
		mu.Unlock()
		close(done)
	})

	require.NoError(t, d.PostReceivedSessionResponse(ReceivedSessionResponse{
		SessionID: session.ID(1),
		Payload:   []byte("payload"),
	}, dealloc))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deallocation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"callback", "dealloc"}, order)
}

func TestDeallocatesEvenWithoutCallback(t *testing.T) {
	d := New(Config{Capacity: 8})
	require.NoError(t, d.Run())
	defer d.Stop()

	done := make(chan struct{})
	dealloc := DeallocatorFunc(func(any) { close(done) })

	require.NoError(t, d.PostLocalServiceResponse(LocalServiceResponse{
		EndpointConfigIdx: 0,
		Payload:           "x",
	}, dealloc))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deallocation with no callback registered")
	}
}

func TestSessionReactivatingJumpsQueue(t *testing.T) {
	var mu sync.Mutex
	var order []string
	release := make(chan struct{})

	d := New(Config{Capacity: 8, Callbacks: Callbacks{
		OnActivatedSession: func(ev ActivatedSession) {
			<-release
			mu.Lock()
			order = append(order, "activated")
			mu.Unlock()
		},
		OnSessionReactivating: func(ev SessionReactivating) {
			mu.Lock()
			order = append(order, "reactivating")
			mu.Unlock()
		},
		OnClosedSession: func(ev ClosedSession) {
			mu.Lock()
			order = append(order, "closed")
			mu.Unlock()
		},
	}})
	require.NoError(t, d.Run())
	defer d.Stop()

	require.NoError(t, d.PostActivatedSession(ActivatedSession{SessionID: session.ID(1)}))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, d.PostClosedSession(ClosedSession{SessionID: session.ID(1)}))
	require.NoError(t, d.PostSessionReactivating(SessionReactivating{SessionID: session.ID(2)}))

	close(release)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, "activated", order[0])
	assert.Equal(t, "reactivating", order[1])
	assert.Equal(t, "closed", order[2])
}
