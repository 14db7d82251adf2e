// Package discoveryqueue holds discovery requests (FindServers,
// GetEndpoints, and similar connection-less service calls) that an
// application issued before the Secure Channel to the target discovery
// endpoint was ready. Each channel configuration gets its own bounded FIFO;
// once that channel connects the queue drains in order, and if the channel
// never connects the queue fails every entry instead of leaking it.
package discoveryqueue

import (
	"sync"

	"github.com/pion/logging"

	"github.com/opcua-stack/session-layer/pkg/appdispatch"
	"github.com/opcua-stack/session-layer/pkg/limits"
	"github.com/opcua-stack/session-layer/pkg/session"
)

// Entry is one waiting discovery request.
type Entry struct {
	Message     any
	MessageType string
	AppContext  any
	Deallocator appdispatch.Deallocator
}

func (e Entry) free() {
	if e.Deallocator != nil {
		e.Deallocator.Deallocate(e.Message)
	}
}

// Sender delivers a queued request once its channel is connected. Returning
// an error fails only that entry with StatusBadUnexpectedError; Queue does
// not retry it.
type Sender interface {
	SendDiscoveryRequest(channelConfigIdx int, msg any, msgType string) error
}

// Config configures a Queue.
type Config struct {
	// MaxWaiting bounds each channel configuration's FIFO depth. Zero uses
	// limits.MaxWaitingDiscoveryRequests.
	MaxWaiting int

	Sender        Sender
	Dispatcher    *appdispatch.Dispatcher
	LoggerFactory logging.LoggerFactory
}

// Queue holds one bounded FIFO per channel configuration index.
type Queue struct {
	maxWaiting int
	sender     Sender
	disp       *appdispatch.Dispatcher
	log        logging.LeveledLogger

	mu      sync.Mutex
	byIdx   map[int][]Entry
}

// New constructs a Queue.
func New(cfg Config) *Queue {
	max := cfg.MaxWaiting
	if max <= 0 {
		max = limits.MaxWaitingDiscoveryRequests
	}
	q := &Queue{
		maxWaiting: max,
		sender:     cfg.Sender,
		disp:       cfg.Dispatcher,
		byIdx:      make(map[int][]Entry),
	}
	if cfg.LoggerFactory != nil {
		q.log = cfg.LoggerFactory.NewLogger("discoveryqueue")
	}
	return q
}

// Enqueue appends e to channelConfigIdx's FIFO. If the queue is already at
// capacity, e is failed immediately (StatusBadOutOfMemory) and freed without
// being queued — this mirrors the bounded ack-table behavior of failing the
// newest arrival rather than evicting an older, already-promised one.
func (q *Queue) Enqueue(channelConfigIdx int, e Entry) {
	q.mu.Lock()
	queue := q.byIdx[channelConfigIdx]
	if len(queue) >= q.maxWaiting {
		q.mu.Unlock()
		q.fail(e, session.StatusBadOutOfMemory)
		return
	}
	q.byIdx[channelConfigIdx] = append(queue, e)
	q.mu.Unlock()
}

// Drain is called once channelConfigIdx's Secure Channel connects. Every
// queued entry is sent, in FIFO order; a send failure fails only that entry
// and the drain continues with the rest.
func (q *Queue) Drain(channelConfigIdx int) {
	q.mu.Lock()
	queue := q.byIdx[channelConfigIdx]
	delete(q.byIdx, channelConfigIdx)
	q.mu.Unlock()

	for _, e := range queue {
		if q.sender == nil {
			q.fail(e, session.StatusBadUnexpectedError)
			continue
		}
		if err := q.sender.SendDiscoveryRequest(channelConfigIdx, e.Message, e.MessageType); err != nil {
			if q.log != nil {
				q.log.Warnf("discoveryqueue: send failed for channel config %d: %v", channelConfigIdx, err)
			}
			q.fail(e, session.StatusBadUnexpectedError)
		}
	}
}

// FailAll is called when channelConfigIdx's Secure Channel gives up
// connecting for good. Every queued entry is failed with
// StatusBadSessionClosed (mapped onto the connection-closed status) and
// freed.
func (q *Queue) FailAll(channelConfigIdx int) {
	q.mu.Lock()
	queue := q.byIdx[channelConfigIdx]
	delete(q.byIdx, channelConfigIdx)
	q.mu.Unlock()

	for _, e := range queue {
		q.fail(e, session.StatusBadSessionClosed)
	}
}

// Shutdown frees every queued entry across every channel configuration
// without notifying the application — called on process shutdown, when
// there is no application left to notify.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	all := q.byIdx
	q.byIdx = make(map[int][]Entry)
	q.mu.Unlock()

	for _, queue := range all {
		for _, e := range queue {
			e.free()
		}
	}
}

func (q *Queue) fail(e Entry, status session.Status) {
	defer e.free()
	if q.disp == nil {
		return
	}
	if err := q.disp.PostSendRequestFailed(appdispatch.SendRequestFailed{
		Status:      status,
		MessageType: e.MessageType,
		AppContext:  e.AppContext,
	}); err != nil && q.log != nil {
		q.log.Warnf("discoveryqueue: failed to post SendRequestFailed: %v", err)
	}
}
