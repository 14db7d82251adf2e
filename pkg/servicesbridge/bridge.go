// Package servicesbridge translates Secure-Channel output events into
// Service input events and provides the one synchronous primitive the
// otherwise fully event-driven session layer exposes: CloseAllConnections.
package servicesbridge

import (
	"sync"

	"github.com/pion/logging"

	"github.com/opcua-stack/session-layer/pkg/looper"
	"github.com/opcua-stack/session-layer/pkg/session"
)

// ScEventKind enumerates the Secure-Channel output events the bridge
// translates into Services-Looper input events.
type ScEventKind uint32

const (
	ScEventConnected ScEventKind = iota
	ScEventDisconnected
	ScEventAllDisconnected
)

// ScEvent is what a SecureChannels collaborator posts to the bridge.
type ScEvent struct {
	Kind       ScEventKind
	ChannelID  uint32
	ClientOnly bool
}

// Config configures a Bridge.
type Config struct {
	// Services is the Services Looper that CloseAllConnections and session
	// translation events are posted onto.
	Services *looper.Looper

	// ActiveSessionCount reports the number of live sessions bound to
	// client-only or all channels, used for the close_all_connections(true)
	// idempotence pre-check: zero sessions synthesizes ScAllDisconnected
	// immediately instead of waiting on Services to report it.
	ActiveSessionCount func() int

	LoggerFactory logging.LoggerFactory
}

// Bridge owns the CloseAllConnections condition variable and the
// Secure-Channel-to-Service event translation table.
type Bridge struct {
	services *looper.Looper
	activeCount func() int
	log      logging.LeveledLogger

	mu              sync.Mutex
	cond            *sync.Cond
	requested       bool
	allDisconnected bool
	clientOnly      bool
}

// New constructs a Bridge.
func New(cfg Config) *Bridge {
	b := &Bridge{
		services:    cfg.Services,
		activeCount: cfg.ActiveSessionCount,
	}
	b.cond = sync.NewCond(&b.mu)
	if cfg.LoggerFactory != nil {
		b.log = cfg.LoggerFactory.NewLogger("servicesbridge")
	}
	if b.activeCount == nil {
		b.activeCount = func() int { return 0 }
	}
	return b
}

// OnSecureChannelEvent translates a Secure-Channel output event into the
// corresponding Services input event. Called from the SecureChannels
// Looper's own handler goroutine; it posts across to the Services Looper,
// it never touches session state directly.
func (b *Bridge) OnSecureChannelEvent(ev ScEvent) error {
	switch ev.Kind {
	case ScEventDisconnected:
		return b.services.Post(looper.New(uint32(session.EventScDisconnected), ev.ChannelID))
	case ScEventConnected:
		return b.services.Post(looper.New(uint32(session.EventScConnected), ev.ChannelID))
	case ScEventAllDisconnected:
		b.AllDisconnected(ev.ClientOnly)
		return nil
	}
	return nil
}

// CloseAllConnections is the bridge's one synchronous primitive: it sets
// requested/all_disconnected/client_only, posts CloseAllConnections onto
// Services, and blocks until Services (or the idempotence pre-check below)
// signals all_disconnected. Safe to call from any goroutine; must never be
// called from a Looper's own handler goroutine, or the wait would deadlock
// against the event it is waiting for.
func (b *Bridge) CloseAllConnections(clientOnly bool) error {
	b.mu.Lock()
	b.requested = true
	b.allDisconnected = false
	b.clientOnly = clientOnly
	b.mu.Unlock()

	if b.activeCount() == 0 {
		// Idempotence pre-check: nothing to close, synthesize the signal
		// locally so the caller is never stuck waiting on a Services event
		// that will never arrive.
		b.signalAllDisconnected(clientOnly)
	} else if err := b.services.Post(looper.New(uint32(session.EventCloseAllConnections), boolToUint32(clientOnly))); err != nil {
		b.mu.Lock()
		b.requested = false
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	for !b.allDisconnected {
		b.cond.Wait()
	}
	b.requested = false
	b.mu.Unlock()
	return nil
}

// AllDisconnected implements session.Notifier's AllDisconnected hook: wire
// it as (or from) the Services Dispatcher so that once Services has closed
// every session for a CloseAllConnections request, the bridge's waiter
// wakes. It is also called by CloseAllConnections' own idempotence
// pre-check when there is nothing to close.
func (b *Bridge) AllDisconnected(clientOnly bool) {
	b.signalAllDisconnected(clientOnly)
}

func (b *Bridge) signalAllDisconnected(clientOnly bool) {
	b.mu.Lock()
	b.allDisconnected = true
	b.clientOnly = clientOnly
	b.mu.Unlock()
	b.cond.Broadcast()
}

func boolToUint32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
