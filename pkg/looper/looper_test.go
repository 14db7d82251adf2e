package looper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDeliversInOrder(t *testing.T) {
	l := New(Config{Name: "test"})

	var mu sync.Mutex
	var got []uint32
	done := make(chan struct{})
	l.SetHandler(HandlerFunc(func(e Event) {
		mu.Lock()
		got = append(got, e.ID)
		mu.Unlock()
		if len(got) == 3 {
			close(done)
		}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	require.NoError(t, l.Post(New(1, 1)))
	require.NoError(t, l.Post(New(1, 2)))
	require.NoError(t, l.Post(New(1, 3)))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint32{1, 2, 3}, got)
}

func TestPostAsNextJumpsQueue(t *testing.T) {
	l := New(Config{Name: "test"})

	release := make(chan struct{})
	var mu sync.Mutex
	var got []uint32
	done := make(chan struct{})

	first := true
	l.SetHandler(HandlerFunc(func(e Event) {
		if first && e.ID == 1 {
			first = false
			<-release // hold the worker so 2 and 3 both queue up behind it
		}
		mu.Lock()
		got = append(got, e.ID)
		n := len(got)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	}))
	require.NoError(t, l.Run())
	defer l.Stop()

	require.NoError(t, l.Post(New(1, 1)))
	// give the worker a chance to pick up event 1 and block on release
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Post(New(1, 2)))
	require.NoError(t, l.PostAsNext(New(1, 3)))
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint32{1, 3, 2}, got)
}

func TestPostReturnsErrQueueFull(t *testing.T) {
	l := New(Config{Name: "test", Capacity: 1})
	block := make(chan struct{})
	l.SetHandler(HandlerFunc(func(e Event) {
		<-block
	}))
	require.NoError(t, l.Run())
	defer func() {
		close(block)
		l.Stop()
	}()

	require.NoError(t, l.Post(New(1, 1))) // picked up by the worker immediately
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Post(New(1, 2))) // fills the one-slot queue
	assert.ErrorIs(t, l.Post(New(1, 3)), ErrQueueFull)
}

func TestPostWarnOnFullDropsAndReleases(t *testing.T) {
	l := New(Config{Name: "test", Capacity: 1, WarnOnFull: true})
	block := make(chan struct{})
	l.SetHandler(HandlerFunc(func(e Event) {
		<-block
	}))
	require.NoError(t, l.Run())
	defer func() {
		close(block)
		l.Stop()
	}()

	require.NoError(t, l.Post(New(1, 1)))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Post(New(1, 2)))

	released := false
	p := Owned("test", 42, func(any) { released = true })
	assert.NoError(t, l.Post(New(1, 3).WithParams(p)))
	assert.True(t, released)
}

func TestPostAfterStopReturnsErrClosed(t *testing.T) {
	l := New(Config{Name: "test"})
	l.SetHandler(HandlerFunc(func(e Event) {}))
	require.NoError(t, l.Run())
	l.Stop()
	assert.ErrorIs(t, l.Post(New(1, 1)), ErrClosed)
}

func TestRunWithoutHandlerFails(t *testing.T) {
	l := New(Config{Name: "test"})
	assert.ErrorIs(t, l.Run(), ErrNoHandler)
}
