package session

import (
	"crypto/rsa"
	"time"

	"github.com/pion/logging"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/looper"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
)

// Notifier is the Application Dispatcher's inbound surface, as seen from
// the session layer. Manager calls these synchronously from its Looper
// handler; implementations must not block.
type Notifier interface {
	ActivatedSession(id ID, appContext any)
	SessionReactivating(id ID, appContext any)
	SessionActivationFailure(id ID, status Status, appContext any)
	ClosedSession(id ID, status Status, appContext any)
	AllDisconnected(clientOnly bool)
}

type noopNotifier struct{}

func (noopNotifier) ActivatedSession(ID, any)                {}
func (noopNotifier) SessionReactivating(ID, any)             {}
func (noopNotifier) SessionActivationFailure(ID, Status, any) {}
func (noopNotifier) ClosedSession(ID, Status, any)           {}
func (noopNotifier) AllDisconnected(bool)                    {}

// Config configures a Manager.
type Config struct {
	MaxSessions int
	MinTimeoutMs uint32
	MaxTimeoutMs uint32
	NonceLength  int

	ServerCertificate []byte
	ServerKey         *rsa.PrivateKey
	Trust             cryptoadapter.TrustList
	Auth              usertoken.AuthenticationManager
	ProviderFor       func(cryptoadapter.SecurityPolicy) (*cryptoadapter.Provider, error)

	Dispatcher Notifier

	LooperCapacity int
	LoggerFactory  logging.LoggerFactory
}

const (
	defaultMaxSessions  = 20
	defaultMinTimeoutMs = 10_000
	defaultMaxTimeoutMs = 600_000
	defaultNonceLength  = 32
)

// Manager owns the server-side session table and runs entirely on its own
// Services Looper: every public method here other than the Post* wrappers
// is safe to call only from that Looper's handler goroutine (directly in
// tests, or via the Looper's Handler in production). The Post* wrappers
// are for other goroutines; they wait for the Looper to handle the event.
type Manager struct {
	t    *table
	deps Deps
	disp Notifier

	l   *looper.Looper
	log logging.LeveledLogger
}

// NewManager constructs a Manager and its Services Looper (not yet
// started — call Run).
func NewManager(cfg Config) (*Manager, error) {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.MinTimeoutMs == 0 {
		cfg.MinTimeoutMs = defaultMinTimeoutMs
	}
	if cfg.MaxTimeoutMs == 0 {
		cfg.MaxTimeoutMs = defaultMaxTimeoutMs
	}
	if cfg.NonceLength == 0 {
		cfg.NonceLength = defaultNonceLength
	}
	if cfg.ProviderFor == nil {
		cfg.ProviderFor = cryptoadapter.NewProvider
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = noopNotifier{}
	}

	m := &Manager{
		t: newTable(cfg.MaxSessions),
		deps: Deps{
			ProviderFor: cfg.ProviderFor,
			ServerCert:  cfg.ServerCertificate,
			ServerKey:   cfg.ServerKey,
			Trust:       cfg.Trust,
			Auth:        cfg.Auth,
			MinTimeout:  cfg.MinTimeoutMs,
			MaxTimeout:  cfg.MaxTimeoutMs,
			NonceLength: cfg.NonceLength,
		},
		disp: cfg.Dispatcher,
	}
	m.l = looper.New(looper.Config{Name: "services", Capacity: cfg.LooperCapacity, LoggerFactory: cfg.LoggerFactory})
	m.l.SetHandler(looper.HandlerFunc(m.onEvent))
	if cfg.LoggerFactory != nil {
		m.log = cfg.LoggerFactory.NewLogger("session-manager")
	}
	return m, nil
}

// Run starts the Services Looper.
func (m *Manager) Run() error { return m.l.Run() }

// Stop stops the Services Looper.
func (m *Manager) Stop() { m.l.Stop() }

// Looper exposes the underlying Looper so other components (SecureChannels
// collaborator, Timeout Manager) can Post/PostAsNext events onto it.
func (m *Manager) Looper() *looper.Looper { return m.l }

// CreateSession runs the init→creating→created path. Safe to call only
// from the Services Looper.
func (m *Manager) CreateSession(req CreateSessionRequest) (CreateSessionResponse, error) {
	_, resp, err := createSession(m.t, m.deps, req)
	return resp, err
}

// ActivateSession runs the activation/reactivation path, notifying the
// Application Dispatcher of the outcome before returning.
func (m *Manager) ActivateSession(req ActivateSessionRequest, appContext any) (ActivateSessionResponse, error) {
	r, resp, reactivation, err := activateSession(m.t, m.deps, req)
	if err != nil {
		status := StatusBadUnexpectedError
		if se, ok := err.(*StatusError); ok {
			status = se.Status
		}
		m.disp.SessionActivationFailure(req.SessionID, status, appContext)
		return ActivateSessionResponse{}, err
	}
	if reactivation {
		// As-next: inactivation-adjacent notice must precede any further
		// publish-response notification for this session.
		m.disp.SessionReactivating(r.ID, appContext)
	}
	m.disp.ActivatedSession(r.ID, appContext)
	return resp, nil
}

// CloseSession runs the closing→closed path.
func (m *Manager) CloseSession(id ID, authToken AuthToken, appContext any) error {
	if err := closeSession(m.t, id, authToken); err != nil {
		return err
	}
	m.disp.ClosedSession(id, StatusGood, appContext)
	return nil
}

// EvalSessionTimeout is invoked by the Timeout Manager when a session's
// timer fires. It returns the duration to re-arm for, or signals that the
// session was closed.
func (m *Manager) EvalSessionTimeout(id ID) (remaining time.Duration, closed bool) {
	d, c := evalSessionTimeout(m.t, id)
	if c {
		m.disp.ClosedSession(id, StatusBadSessionIDExpired, nil)
	}
	return d, c
}

// ScDisconnected moves every session bound to channelID into sc_orphaned,
// posting an as-next inactivation notice for each so pending publish
// responses for the former binding stop before any new ones are delivered.
func (m *Manager) ScDisconnected(channelID uint32) []ID {
	affected := scDisconnected(m.t, channelID)
	for _, id := range affected {
		m.disp.SessionReactivating(id, nil) // inactivation notice, reused: no bound user yet to reactivate into
	}
	return affected
}

// CloseAllConnections closes every active session (clientOnly is carried
// through to the notifier so the Services Bridge can distinguish a
// client-initiated shutdown from a full server shutdown, though this
// manager does not itself distinguish client-bound from server-bound
// sessions — see DESIGN.md) and notifies once every slot has been freed.
func (m *Manager) CloseAllConnections(clientOnly bool) {
	var ids []ID
	m.t.forEachActiveServer(func(r *ServerSessionRecord) { ids = append(ids, r.ID) })
	for _, id := range ids {
		r, err := m.t.serverByID(id)
		if err != nil {
			continue
		}
		token := r.AuthToken
		if err := closeSession(m.t, id, token); err == nil {
			m.disp.ClosedSession(id, StatusGood, nil)
		}
	}
	m.disp.AllDisconnected(clientOnly)
}

// SessionByID exposes a read accessor for diagnostics and tests. Safe only
// from the Services Looper.
func (m *Manager) SessionByID(id ID) (*ServerSessionRecord, error) {
	return m.t.serverByID(id)
}

// PostCreateSession posts a CreateSessionRequest onto the Services Looper
// and blocks until it has been handled, giving external callers (the
// SecureChannels collaborator) a synchronous call despite the underlying
// single-threaded dispatch.
func (m *Manager) PostCreateSession(req CreateSessionRequest) (CreateSessionResponse, error) {
	call := &createSessionCall{req: req, resCh: make(chan createSessionResult, 1)}
	if err := m.l.Post(looper.New(uint32(EventCreateSessionRequest), 0).WithParams(looper.Borrowed("createSessionCall", call))); err != nil {
		return CreateSessionResponse{}, err
	}
	res := <-call.resCh
	return res.resp, res.err
}

// PostActivateSession posts an ActivateSessionRequest onto the Services
// Looper and blocks until it has been handled.
func (m *Manager) PostActivateSession(req ActivateSessionRequest, appContext any) (ActivateSessionResponse, error) {
	call := &activateSessionCall{req: req, appContext: appContext, resCh: make(chan activateSessionResult, 1)}
	if err := m.l.Post(looper.New(uint32(EventActivateSessionRequest), uint32(req.SessionID)).WithParams(looper.Borrowed("activateSessionCall", call))); err != nil {
		return ActivateSessionResponse{}, err
	}
	res := <-call.resCh
	return res.resp, res.err
}

// PostCloseSession posts a CloseSessionRequest onto the Services Looper
// and blocks until it has been handled.
func (m *Manager) PostCloseSession(id ID, authToken AuthToken, appContext any) error {
	call := &closeSessionCall{id: id, authToken: authToken, appContext: appContext, resCh: make(chan error, 1)}
	if err := m.l.Post(looper.New(uint32(EventCloseSessionRequest), uint32(id)).WithParams(looper.Borrowed("closeSessionCall", call))); err != nil {
		return err
	}
	return <-call.resCh
}

// PostScDisconnected posts a Secure Channel loss notification onto the
// Services Looper. It does not wait for a reply: the caller doesn't need
// one, and the ordering guarantee (inactivation precedes any further
// publish-response notification) comes from FIFO delivery, not from
// synchronous waiting.
func (m *Manager) PostScDisconnected(channelID uint32) error {
	return m.l.Post(looper.New(uint32(EventScDisconnected), channelID).WithParams(looper.Borrowed("scDisconnectedCall", &scDisconnectedCall{channelID: channelID})))
}

// onEvent is the Looper Handler entry point. Event payloads are carried
// as Borrowed Params typed by string tag; a production SecureChannels/
// Application collaborator constructs these on the sender's own Looper
// goroutine and hands ownership to Post/PostAsNext, matching the
// tagged-variant design note.
func (m *Manager) onEvent(e looper.Event) {
	switch EventKind(e.Kind) {
	case EventCreateSessionRequest:
		if req, ok := e.Params.Payload().(*createSessionCall); ok {
			resp, err := m.CreateSession(req.req)
			req.reply(resp, err)
		}
	case EventActivateSessionRequest:
		if req, ok := e.Params.Payload().(*activateSessionCall); ok {
			resp, err := m.ActivateSession(req.req, req.appContext)
			req.reply(resp, err)
		}
	case EventCloseSessionRequest:
		if req, ok := e.Params.Payload().(*closeSessionCall); ok {
			err := m.CloseSession(req.id, req.authToken, req.appContext)
			req.reply(err)
		}
	case EventScDisconnected:
		if req, ok := e.Params.Payload().(*scDisconnectedCall); ok {
			m.ScDisconnected(req.channelID)
		}
	case EventEvalSessionTimeout:
		if id, ok := e.Params.Payload().(ID); ok {
			m.EvalSessionTimeout(id)
		}
	case EventCloseAllConnections:
		m.CloseAllConnections(e.ID != 0)
	}
}

// The *Call types below are the Borrowed payloads posted onto the Services
// Looper by collaborators that want a synchronous-looking request/response
// API without blocking the Looper itself: reply delivers the result on a
// buffered channel the caller already holds.

type createSessionCall struct {
	req   CreateSessionRequest
	resCh chan createSessionResult
}
type createSessionResult struct {
	resp CreateSessionResponse
	err  error
}

func (c *createSessionCall) reply(resp CreateSessionResponse, err error) {
	c.resCh <- createSessionResult{resp, err}
}

type activateSessionCall struct {
	req        ActivateSessionRequest
	appContext any
	resCh      chan activateSessionResult
}
type activateSessionResult struct {
	resp ActivateSessionResponse
	err  error
}

func (c *activateSessionCall) reply(resp ActivateSessionResponse, err error) {
	c.resCh <- activateSessionResult{resp, err}
}

type closeSessionCall struct {
	id         ID
	authToken  AuthToken
	appContext any
	resCh      chan error
}

func (c *closeSessionCall) reply(err error) {
	c.resCh <- err
}

type scDisconnectedCall struct {
	channelID uint32
}
