package discoveryqueue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/appdispatch"
)

type fakeSender struct {
	mu  sync.Mutex
	got []string
	err error
}

func (f *fakeSender) SendDiscoveryRequest(idx int, msg any, msgType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msgType)
	return f.err
}

func TestDrainSendsInFIFOOrder(t *testing.T) {
	sender := &fakeSender{}
	q := New(Config{MaxWaiting: 5, Sender: sender})

	q.Enqueue(1, Entry{MessageType: "FindServers"})
	q.Enqueue(1, Entry{MessageType: "GetEndpoints"})
	q.Drain(1)

	assert.Equal(t, []string{"FindServers", "GetEndpoints"}, sender.got)
}

func TestEnqueueBeyondCapacityFailsImmediately(t *testing.T) {
	freed := 0
	var mu sync.Mutex
	failed := make(chan struct{}, 1)
	d2 := appdispatch.New(appdispatch.Config{Capacity: 8, Callbacks: appdispatch.Callbacks{
		OnSendRequestFailed: func(ev appdispatch.SendRequestFailed) {
			mu.Lock()
			failed <- struct{}{}
			mu.Unlock()
		},
	}})
	require.NoError(t, d2.Run())
	defer d2.Stop()

	q := New(Config{MaxWaiting: 1, Dispatcher: d2})
	q.Enqueue(1, Entry{MessageType: "A", Deallocator: appdispatch.DeallocatorFunc(func(any) { freed++ })})
	q.Enqueue(1, Entry{MessageType: "B", Deallocator: appdispatch.DeallocatorFunc(func(any) { freed++ })})

	select {
	case <-failed:
	case <-time.After(time.Second):
		t.Fatal("expected SendRequestFailed to have been posted")
	}
	assert.Equal(t, 1, freed) // only the second entry overflowed capacity and was freed
}

func TestFailAllFailsEveryQueuedEntry(t *testing.T) {
	count := 0
	q := New(Config{MaxWaiting: 5})
	q.Enqueue(2, Entry{MessageType: "A", Deallocator: appdispatch.DeallocatorFunc(func(any) { count++ })})
	q.Enqueue(2, Entry{MessageType: "B", Deallocator: appdispatch.DeallocatorFunc(func(any) { count++ })})

	q.FailAll(2)

	assert.Equal(t, 2, count)
	q.Drain(2) // already emptied by FailAll; draining again must be a no-op
}

func TestShutdownFreesWithoutDispatch(t *testing.T) {
	count := 0
	q := New(Config{MaxWaiting: 5})
	q.Enqueue(3, Entry{MessageType: "A", Deallocator: appdispatch.DeallocatorFunc(func(any) { count++ })})

	q.Shutdown()
	assert.Equal(t, 1, count)
}

func TestDrainSendFailureContinuesWithRemainingEntries(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	q := New(Config{MaxWaiting: 5, Sender: sender})
	q.Enqueue(1, Entry{MessageType: "A"})
	q.Enqueue(1, Entry{MessageType: "B"})

	q.Drain(1)
	assert.Equal(t, []string{"A", "B"}, sender.got)
}
