package looper

// Event is the unit of work dispatched by a Looper. Kind identifies the
// event's meaning to registered Handlers (a small closed enum per Looper,
// defined by the package that owns that Looper — e.g. pkg/session defines
// the Services-Looper event kinds). ID is a secondary discriminator, most
// often a SessionID or channel-config index. Params and Aux carry the
// event's payload as tagged Param values; the bus itself never inspects
// either.
type Event struct {
	Kind   uint32
	ID     uint32
	Params Param
	Aux    Param
}

// New constructs an Event with empty Params/Aux.
func New(kind, id uint32) Event {
	return Event{Kind: kind, ID: id, Params: Empty, Aux: Empty}
}

// WithParams returns a copy of e with Params set.
func (e Event) WithParams(p Param) Event {
	e.Params = p
	return e
}

// WithAux returns a copy of e with Aux set.
func (e Event) WithAux(p Param) Event {
	e.Aux = p
	return e
}

// Handler processes events delivered by a Looper. OnEvent runs on the
// Looper's single worker goroutine; it must not block on anything other
// than the synchronous operations the component itself performs (crypto,
// table lookups). Long operations violate the <10ms budget described for
// the Services Looper and should be offloaded to a helper Looper instead.
type Handler interface {
	OnEvent(e Event)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(e Event)

// OnEvent implements Handler.
func (f HandlerFunc) OnEvent(e Event) { f(e) }
