// Package sessiontimeout arms one timer per session id and posts
// EvalSessionTimeout events onto the Services Looper when it fires. It
// never touches session state directly — the Services Looper's handler
// decides whether to close the session or re-arm.
package sessiontimeout

import (
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/opcua-stack/session-layer/pkg/looper"
	"github.com/opcua-stack/session-layer/pkg/session"
)

// Config configures a Manager.
type Config struct {
	Looper        *looper.Looper
	LoggerFactory logging.LoggerFactory
}

// Manager owns one time.Timer per live session id. Time source is the
// monotonic clock exclusively — it never reads wall-clock time.
type Manager struct {
	l   *looper.Looper
	log logging.LeveledLogger

	mu     sync.Mutex
	timers map[session.ID]*time.Timer
}

// New constructs a Manager posting onto cfg.Looper.
func New(cfg Config) *Manager {
	m := &Manager{
		l:      cfg.Looper,
		timers: make(map[session.ID]*time.Timer),
	}
	if cfg.LoggerFactory != nil {
		m.log = cfg.LoggerFactory.NewLogger("sessiontimeout")
	}
	return m
}

// Arm schedules (or re-schedules, cancelling any prior timer) a one-shot
// firing after d for id.
func (m *Manager) Arm(id session.ID, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[id]; ok {
		t.Stop()
	}
	m.timers[id] = time.AfterFunc(d, func() { m.fire(id) })
}

// Cancel stops id's timer, if any, without firing it. Called on close.
func (m *Manager) Cancel(id session.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
}

// CancelAll stops every armed timer, used on shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

func (m *Manager) fire(id session.ID) {
	err := m.l.Post(looper.New(uint32(session.EventEvalSessionTimeout), uint32(id)).
		WithParams(looper.Borrowed("sessionID", id)))
	if err != nil && m.log != nil {
		m.log.Warnf("sessiontimeout: failed to post EvalSessionTimeout for session %d: %v", id, err)
	}
}

// Rearm arms a new one-shot for remaining, exactly as Arm does
// (time.AfterFunc never fails). Nothing in this module calls it: the
// session Manager's EvalSessionTimeout event handling discards the
// remaining duration, so a session still active when its timer fires is
// not re-armed.
func (m *Manager) Rearm(id session.ID, remaining time.Duration) {
	m.Arm(id, remaining)
}
