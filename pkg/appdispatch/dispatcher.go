package appdispatch

import (
	"github.com/pion/logging"

	"github.com/opcua-stack/session-layer/pkg/looper"
)

// Callbacks is the application's hook set. Any field left nil means the
// dispatcher still deallocates the event's payload but delivers nothing.
type Callbacks struct {
	OnSessionActivationFailure     func(SessionActivationFailure)
	OnActivatedSession             func(ActivatedSession)
	OnSessionReactivating          func(SessionReactivating)
	OnReceivedSessionResponse      func(ReceivedSessionResponse)
	OnReceivedDiscoveryResponse    func(ReceivedDiscoveryResponse)
	OnSendRequestFailed            func(SendRequestFailed)
	OnClosedSession                func(ClosedSession)
	OnClosedEndpoint               func(ClosedEndpoint)
	OnLocalServiceResponse         func(LocalServiceResponse)
	OnAddressSpaceWriteNotification func(AddressSpaceWriteNotification)
}

// Config configures a Dispatcher.
type Config struct {
	Callbacks     Callbacks
	Capacity      int
	LoggerFactory logging.LoggerFactory
}

// Dispatcher runs the Application Dispatcher on its own Looper.
type Dispatcher struct {
	cb  Callbacks
	l   *looper.Looper
	log logging.LeveledLogger
}

// New constructs a Dispatcher. Call Run to start its Looper.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{cb: cfg.Callbacks}
	d.l = looper.New(looper.Config{Name: "application", Capacity: cfg.Capacity, LoggerFactory: cfg.LoggerFactory})
	d.l.SetHandler(looper.HandlerFunc(d.onEvent))
	if cfg.LoggerFactory != nil {
		d.log = cfg.LoggerFactory.NewLogger("appdispatch")
	}
	return d
}

// Run starts the Application Looper.
func (d *Dispatcher) Run() error { return d.l.Run() }

// Stop stops the Application Looper.
func (d *Dispatcher) Stop() { d.l.Stop() }

// Looper exposes the underlying Looper so the Services Looper's handler
// can Post/PostAsNext onto it.
func (d *Dispatcher) Looper() *looper.Looper { return d.l }

func post(l *looper.Looper, kind Kind, id uint32, payload any, dealloc Deallocator, asNext bool) error {
	e := looper.New(uint32(kind), id).WithParams(looper.Owned("appevent", payload, func(p any) {
		if dealloc != nil {
			dealloc.Deallocate(p)
		}
	}))
	if asNext {
		return l.PostAsNext(e)
	}
	return l.Post(e)
}

// PostSessionActivationFailure delivers a failed-activation notice.
func (d *Dispatcher) PostSessionActivationFailure(ev SessionActivationFailure) error {
	return post(d.l, KindSessionActivationFailure, uint32(ev.SessionID), ev, nil, false)
}

// PostActivatedSession delivers an activation-success notice.
func (d *Dispatcher) PostActivatedSession(ev ActivatedSession) error {
	return post(d.l, KindActivatedSession, uint32(ev.SessionID), ev, nil, false)
}

// PostSessionReactivating delivers the as-next inactivation notice: it
// must be posted with priority so it precedes any further publish
// response for the same session.
func (d *Dispatcher) PostSessionReactivating(ev SessionReactivating) error {
	return post(d.l, KindSessionReactivating, uint32(ev.SessionID), ev, nil, true)
}

// PostReceivedSessionResponse delivers a decoded response, registering
// dealloc to run after the callback returns (or immediately, if no
// callback is set).
func (d *Dispatcher) PostReceivedSessionResponse(ev ReceivedSessionResponse, dealloc Deallocator) error {
	ev.deallocator = dealloc
	return post(d.l, KindReceivedSessionResponse, uint32(ev.SessionID), ev, dealloc, false)
}

// PostReceivedDiscoveryResponse delivers a decoded discovery response.
func (d *Dispatcher) PostReceivedDiscoveryResponse(ev ReceivedDiscoveryResponse, dealloc Deallocator) error {
	ev.deallocator = dealloc
	return post(d.l, KindReceivedDiscoveryResponse, 0, ev, dealloc, false)
}

// PostSendRequestFailed delivers a send-failure notice.
func (d *Dispatcher) PostSendRequestFailed(ev SendRequestFailed) error {
	return post(d.l, KindSendRequestFailed, 0, ev, nil, false)
}

// PostClosedSession delivers a session-closure notice.
func (d *Dispatcher) PostClosedSession(ev ClosedSession) error {
	return post(d.l, KindClosedSession, uint32(ev.SessionID), ev, nil, false)
}

// PostClosedEndpoint delivers an endpoint-closure notice.
func (d *Dispatcher) PostClosedEndpoint(ev ClosedEndpoint) error {
	return post(d.l, KindClosedEndpoint, uint32(ev.EndpointConfigIdx), ev, nil, false)
}

// PostLocalServiceResponse delivers a served-locally response.
func (d *Dispatcher) PostLocalServiceResponse(ev LocalServiceResponse, dealloc Deallocator) error {
	ev.deallocator = dealloc
	return post(d.l, KindLocalServiceResponse, uint32(ev.EndpointConfigIdx), ev, dealloc, false)
}

// PostAddressSpaceWriteNotification delivers an address-space write
// notice with its captured call context.
func (d *Dispatcher) PostAddressSpaceWriteNotification(ev AddressSpaceWriteNotification) error {
	return post(d.l, KindAddressSpaceWriteNotification, uint32(ev.Context.SessionID), ev, nil, false)
}

func (d *Dispatcher) onEvent(e looper.Event) {
	defer e.Params.Release()

	payload := e.Params.Payload()
	switch Kind(e.Kind) {
	case KindSessionActivationFailure:
		if ev, ok := payload.(SessionActivationFailure); ok && d.cb.OnSessionActivationFailure != nil {
			d.cb.OnSessionActivationFailure(ev)
		}
	case KindActivatedSession:
		if ev, ok := payload.(ActivatedSession); ok && d.cb.OnActivatedSession != nil {
			d.cb.OnActivatedSession(ev)
		}
	case KindSessionReactivating:
		if ev, ok := payload.(SessionReactivating); ok && d.cb.OnSessionReactivating != nil {
			d.cb.OnSessionReactivating(ev)
		}
	case KindReceivedSessionResponse:
		if ev, ok := payload.(ReceivedSessionResponse); ok && d.cb.OnReceivedSessionResponse != nil {
			d.cb.OnReceivedSessionResponse(ev)
		}
	case KindReceivedDiscoveryResponse:
		if ev, ok := payload.(ReceivedDiscoveryResponse); ok && d.cb.OnReceivedDiscoveryResponse != nil {
			d.cb.OnReceivedDiscoveryResponse(ev)
		}
	case KindSendRequestFailed:
		if ev, ok := payload.(SendRequestFailed); ok && d.cb.OnSendRequestFailed != nil {
			d.cb.OnSendRequestFailed(ev)
		}
	case KindClosedSession:
		if ev, ok := payload.(ClosedSession); ok && d.cb.OnClosedSession != nil {
			d.cb.OnClosedSession(ev)
		}
	case KindClosedEndpoint:
		if ev, ok := payload.(ClosedEndpoint); ok && d.cb.OnClosedEndpoint != nil {
			d.cb.OnClosedEndpoint(ev)
		}
	case KindLocalServiceResponse:
		if ev, ok := payload.(LocalServiceResponse); ok && d.cb.OnLocalServiceResponse != nil {
			d.cb.OnLocalServiceResponse(ev)
		}
	case KindAddressSpaceWriteNotification:
		if ev, ok := payload.(AddressSpaceWriteNotification); ok && d.cb.OnAddressSpaceWriteNotification != nil {
			d.cb.OnAddressSpaceWriteNotification(ev)
		}
	}
}
