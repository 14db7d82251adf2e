// Package services declares the collaborator interfaces the session layer
// consumes at its outer boundary but does not implement: the Secure
// Channels transport, the address-space/subscription service handlers, and
// the per-endpoint Authorization Manager. Nothing in this package runs on
// its own Looper — it is pure contract, implemented by the application that
// embeds this module (or by fakes in other packages' test files).
package services

import "github.com/opcua-stack/session-layer/pkg/session"

// SecureChannels is the outbound contract the session layer drives to open,
// close, and reevaluate endpoint listeners and Secure Channel connections.
// The byte-level framing, TCP/TLS I/O, and SecureChannel handshake
// themselves are out of scope for this module (spec Non-goals) — this
// interface is the named boundary a real SecureChannels implementation
// would satisfy.
type SecureChannels interface {
	EpOpen(endpointConfigIdx int) error
	EpClose(endpointConfigIdx int) error
	ReverseEpOpen(endpointConfigIdx int, url string) error
	ReverseEpClose(endpointConfigIdx int) error
	ScServiceSendMsg(channelID uint32, msg any) error
	ScDisconnect(channelID uint32) error
	ScDisconnectedAck(channelID uint32) error
	ScsReevaluate() error
}

// RequestContext carries the session binding a Services request arrived
// under, so handlers can apply the Authorization Manager's decision without
// re-deriving it from wire state.
type RequestContext struct {
	SessionID session.ID
	User      any
}

// AddressSpace is the read/write/browse/subscription service handler the
// session layer triggers lifecycle hooks into but does not implement
// (spec Non-goals: "the address-space, read/write/browse service handlers
// and subscription engine"). The session layer calls these only for the
// lifecycle-adjacent operations it is itself responsible for driving.
type AddressSpace interface {
	Read(ctx RequestContext, req any) (any, error)
	Write(ctx RequestContext, req any) (any, error)
	Browse(ctx RequestContext, req any) (any, error)

	// SessionClosed lets the address-space engine release any
	// subscriptions, monitored items, or continuation points owned by a
	// session once the session layer has freed its table slot.
	SessionClosed(id session.ID)
}

// AuthorizationManager is opaque per spec §6: the session layer attaches
// one per endpoint configuration and otherwise never inspects its internal
// state. Decide is the one hook it needs: given an authenticated identity
// and the operation being attempted, allow or deny it.
type AuthorizationManager interface {
	Decide(ctx RequestContext, operation string) bool
}

// EndpointConfig names one local listening configuration: its index and
// URL, its attached Authorization Manager, and the
// AddressSpace/Services handler the sessions opened against it are routed
// to.
type EndpointConfig struct {
	Index       int
	URL         string
	Auth        AuthorizationManager
	AddressSpace AddressSpace
}
