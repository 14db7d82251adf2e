// Package limits collects the compile-time resource limits that size every
// other package's tables, queues and timers. Nothing here is dynamic: a
// deployment picks its ceilings once, at image-build time, by editing the
// constants below.
package limits

import "time"

// Defaults for every sizing knob a session-layer deployment must pick.
// Components take these as Config defaults, so a test can construct its
// own Config with other values.
const (
	// MaxEndpointDescriptionConfigurations bounds how many local endpoint
	// configurations (and therefore how many independent Secure Channel
	// listeners) a single server image may run.
	MaxEndpointDescriptionConfigurations = 10

	// MaxSecureConnections bounds concurrently open Secure Channels across
	// all endpoint configurations.
	MaxSecureConnections = 20

	// MaxSessions bounds concurrently live sessions in the Session Table.
	// pkg/session.Config.MaxSessions defaults to this value.
	MaxSessions = 20

	// MaxSessionTimeoutMs and MinSessionTimeoutMs bound the
	// RevisedSessionTimeout a CreateSession response may return.
	MaxSessionTimeoutMs uint32 = 600_000
	MinSessionTimeoutMs uint32 = 10_000

	// MaxPendingRequests bounds outstanding request/response pairs awaiting
	// a reply on a single Secure Channel.
	MaxPendingRequests = 128

	// RequestTimeoutMs is how long a pending request waits before its
	// sender is told it failed.
	RequestTimeoutMs uint32 = 5_000

	// ScConnectionTimeoutMs is how long a Secure Channel handshake may take
	// before the connection attempt is abandoned.
	ScConnectionTimeoutMs uint32 = 60_000

	// MaxAsyncQueueElements is the domain-level default Looper queue depth.
	// pkg/looper.MaxAsyncQueueElements carries the same number as that
	// package's own library-level default: this constant is the value
	// deployment wiring (pkg/session.Config.LooperCapacity and friends)
	// should actually pass in, so the two names stay independent and
	// looper itself remains usable outside this domain.
	MaxAsyncQueueElements = 5000

	// NonceLength is the required minimum nonce length in bytes for
	// CreateSession/ActivateSession, enforced regardless of SecurityPolicy.
	NonceLength = 32

	// MaxWaitingDiscoveryRequests bounds the per-channel-config FIFO that
	// pkg/discoveryqueue holds while a Secure Channel to a discovery
	// endpoint is not yet connected.
	MaxWaitingDiscoveryRequests = 5
)

// RequestTimeout and ScConnectionTimeout are the millisecond constants above
// expressed as time.Duration, for callers that want to pass them straight
// into time.Timer/time.After.
func RequestTimeout() time.Duration     { return time.Duration(RequestTimeoutMs) * time.Millisecond }
func ScConnectionTimeout() time.Duration { return time.Duration(ScConnectionTimeoutMs) * time.Millisecond }
func MaxSessionTimeout() time.Duration  { return time.Duration(MaxSessionTimeoutMs) * time.Millisecond }
func MinSessionTimeout() time.Duration  { return time.Duration(MinSessionTimeoutMs) * time.Millisecond }

// Validate checks the ordering invariants between the limits above that a
// misconfigured image-build override could violate. Called once at startup
// by cmd/opcua-session-demo before constructing any component.
func Validate() error {
	switch {
	case MinSessionTimeoutMs == 0:
		return ErrZeroMinSessionTimeout
	case MaxSessionTimeoutMs < MinSessionTimeoutMs:
		return ErrMaxBelowMinSessionTimeout
	case MaxSessions == 0:
		return ErrZeroMaxSessions
	case MaxSecureConnections == 0:
		return ErrZeroMaxSecureConnections
	case MaxEndpointDescriptionConfigurations == 0:
		return ErrZeroMaxEndpoints
	case MaxWaitingDiscoveryRequests == 0:
		return ErrZeroMaxWaitingDiscoveryRequests
	}
	return nil
}
