package looper

import "errors"

var (
	// ErrQueueFull is returned by Post/PostAsNext when the queue is at
	// MaxAsyncQueueElements capacity and warning-only mode is off.
	ErrQueueFull = errors.New("looper: queue full")

	// ErrClosed is returned by Post/PostAsNext on a stopped Looper.
	ErrClosed = errors.New("looper: closed")

	// ErrNoHandler is returned when Run is called without a Handler attached.
	ErrNoHandler = errors.New("looper: no handler attached")
)
