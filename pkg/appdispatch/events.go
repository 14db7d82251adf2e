// Package appdispatch runs the Application Dispatcher: its own Looper,
// the ten typed notification events the session layer delivers to the
// application, and payload deallocation so the application never has to
// manage response buffer lifetimes itself.
package appdispatch

import "github.com/opcua-stack/session-layer/pkg/session"

// Kind enumerates the ten event types the dispatcher delivers.
type Kind uint32

const (
	KindSessionActivationFailure Kind = iota
	KindActivatedSession
	KindSessionReactivating
	KindReceivedSessionResponse
	KindReceivedDiscoveryResponse
	KindSendRequestFailed
	KindClosedSession
	KindClosedEndpoint
	KindLocalServiceResponse
	KindAddressSpaceWriteNotification
)

// Deallocator releases a decoded response payload once the application
// callback (if any) has returned. Every event carrying a payload has one
// bound to its concrete type.
type Deallocator interface {
	Deallocate(payload any)
}

// DeallocatorFunc adapts a function to Deallocator.
type DeallocatorFunc func(payload any)

// Deallocate implements Deallocator.
func (f DeallocatorFunc) Deallocate(payload any) { f(payload) }

// CallContext is the "current call context" captured at post time and
// delivered to the application so it can see which user/session/auxiliary
// status produced a notification.
type CallContext struct {
	SessionID session.ID
	User      any
	Auxiliary any
}

// SessionActivationFailure reports that ActivateSession did not succeed.
type SessionActivationFailure struct {
	SessionID  session.ID
	Status     session.Status
	AppContext any
}

// ActivatedSession reports a session bound (or re-bound) to a user.
type ActivatedSession struct {
	SessionID  session.ID
	AppContext any
}

// SessionReactivating is the as-next "inactivated" notice delivered ahead
// of any further publish-response notification for the same session,
// whether from a user re-activation or a Secure Channel loss.
type SessionReactivating struct {
	SessionID  session.ID
	AppContext any
}

// ReceivedSessionResponse carries a decoded service response payload.
type ReceivedSessionResponse struct {
	SessionID   session.ID
	Payload     any
	AppContext  any
	deallocator Deallocator
}

// ReceivedDiscoveryResponse carries a decoded discovery response payload.
type ReceivedDiscoveryResponse struct {
	Payload     any
	AppContext  any
	deallocator Deallocator
}

// SendRequestFailed reports that a request could not be sent at all.
type SendRequestFailed struct {
	Status      session.Status
	MessageType string
	AppContext  any
}

// ClosedSession reports session closure, with the reason.
type ClosedSession struct {
	SessionID  session.ID
	Status     session.Status
	AppContext any
}

// ClosedEndpoint reports that an endpoint configuration's Secure Channel
// closed.
type ClosedEndpoint struct {
	EndpointConfigIdx int
	Status            session.Status
}

// LocalServiceResponse carries the response to a LocalServiceRequest
// (served without a remote session, e.g. server-side self-calls).
type LocalServiceResponse struct {
	EndpointConfigIdx int
	Payload           any
	AppContext        any
	deallocator       Deallocator
}

// AddressSpaceWriteNotification reports an address-space write, with the
// call context that produced it.
type AddressSpaceWriteNotification struct {
	Context    CallContext
	WriteValue any
	Status     session.Status
}
