package looper

import (
	"sync"

	"github.com/pion/logging"
)

// MaxAsyncQueueElements is the default per-queue capacity. Exceeding it
// makes Post/PostAsNext return ErrQueueFull, or — in warning-only mode — log
// and silently drop the event (releasing any owned payload it carries).
const MaxAsyncQueueElements = 5000

// Config configures a Looper.
type Config struct {
	// Name identifies the Looper in logs (e.g. "secure-channels", "services",
	// "application").
	Name string

	// Capacity overrides MaxAsyncQueueElements. Zero uses the default.
	Capacity int

	// WarnOnFull downgrades a full queue from ErrQueueFull to a logged
	// warning with the event dropped (and its owned payload released).
	WarnOnFull bool

	// LoggerFactory builds the Looper's leveled logger. If nil, logging is
	// disabled.
	LoggerFactory logging.LoggerFactory
}

// Looper is a single-threaded FIFO event dispatcher. Exactly one worker
// goroutine drains its queue and hands every event to the attached Handler
// in post order, except for events posted via PostAsNext, which are
// delivered ahead of any normal event posted after them. No two Handler
// invocations on the same Looper ever run concurrently.
type Looper struct {
	cfg Config
	log logging.LeveledLogger

	normal   chan Event
	priority chan Event
	stop     chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	handler Handler
	started bool
	closed  bool
}

// New creates a Looper. Call SetHandler before Run.
func New(cfg Config) *Looper {
	cap := cfg.Capacity
	if cap <= 0 {
		cap = MaxAsyncQueueElements
	}

	l := &Looper{
		cfg:      cfg,
		normal:   make(chan Event, cap),
		priority: make(chan Event, cap),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.LoggerFactory != nil {
		l.log = cfg.LoggerFactory.NewLogger("looper-" + cfg.Name)
	}
	return l
}

// SetHandler attaches the Handler that will receive every dispatched event.
// Must be called before Run.
func (l *Looper) SetHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

// Run starts the worker goroutine. It returns immediately; call Stop to shut
// the Looper down, which blocks until the worker has drained and exited.
func (l *Looper) Run() error {
	l.mu.Lock()
	if l.handler == nil {
		l.mu.Unlock()
		return ErrNoHandler
	}
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	handler := l.handler
	l.mu.Unlock()

	go l.loop(handler)
	return nil
}

func (l *Looper) loop(handler Handler) {
	defer close(l.done)
	for {
		// Once Stop has been called, queued events are released, not
		// delivered.
		select {
		case <-l.stop:
			l.drain()
			return
		default:
		}

		// As-next events always take priority over the next normal event,
		// even ones posted while the previous handler call was running.
		select {
		case e := <-l.priority:
			handler.OnEvent(e)
			continue
		default:
		}

		select {
		case e := <-l.priority:
			handler.OnEvent(e)
		case e := <-l.normal:
			handler.OnEvent(e)
		case <-l.stop:
			l.drain()
			return
		}
	}
}

// drain releases any owned payloads left in the queues on shutdown, without
// delivering them to the handler.
func (l *Looper) drain() {
	for {
		select {
		case e := <-l.priority:
			e.Params.Release()
			e.Aux.Release()
		case e := <-l.normal:
			e.Params.Release()
			e.Aux.Release()
		default:
			return
		}
	}
}

// Post enqueues e at the tail of the normal queue. Posting is total: it
// never blocks. It returns ErrQueueFull once the queue is at capacity,
// unless WarnOnFull is set, in which case it logs and drops the event
// (releasing any owned payload) and returns nil.
func (l *Looper) Post(e Event) error {
	return l.post(l.normal, e)
}

// PostAsNext enqueues e ahead of any further normal events, for cases like
// delivering a server-inactivation signal with priority over pending
// publish responses.
func (l *Looper) PostAsNext(e Event) error {
	return l.post(l.priority, e)
}

func (l *Looper) post(ch chan Event, e Event) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case ch <- e:
		return nil
	default:
	}

	if l.cfg.WarnOnFull {
		if l.log != nil {
			l.log.Warnf("looper %s: queue full, dropping event kind=%d id=%d", l.cfg.Name, e.Kind, e.ID)
		}
		e.Params.Release()
		e.Aux.Release()
		return nil
	}
	return ErrQueueFull
}

// Stop signals the worker to exit after draining in-flight handler work,
// and waits for it to do so. Events still queued when Stop is called are
// released, not delivered. Stop is idempotent.
func (l *Looper) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	started := l.started
	l.mu.Unlock()

	if !started {
		return
	}
	close(l.stop)
	<-l.done
}

// Name returns the Looper's configured name.
func (l *Looper) Name() string { return l.cfg.Name }
