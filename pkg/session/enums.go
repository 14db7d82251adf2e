// Package session implements the OPC UA session layer's core: the fixed
// twin session tables and the per-session state machine that creates,
// activates, reactivates, times out, and closes sessions under direction
// of the Services Looper.
package session

import "fmt"

// State is one node of the session state machine. Both ServerSessionRecord
// and ClientSessionRecord carry a State; server and client share the enum
// but drive different transitions through it.
type State int

const (
	// StateInit is a free table slot: no session occupies it.
	StateInit State = iota
	// StateCreating is between CreateSessionRequest and the internal
	// crypto step that produces the server signature and auth token.
	StateCreating
	// StateCreated has a reserved id and server_nonce but no bound user.
	StateCreated
	// StateUserActivating is mid-ActivateSession, either the first
	// activation or a reactivation.
	StateUserActivating
	// StateScActivating is mid-reactivation on a newly attached Secure
	// Channel after the session was sc_orphaned.
	StateScActivating
	// StateScOrphaned has a bound user but no live Secure Channel.
	StateScOrphaned
	// StateUserActivated is fully active: bound user, live channel.
	StateUserActivated
	// StateClosing is between CloseSessionRequest and freeing the slot.
	StateClosing
	// StateClosed is terminal; the slot is eligible for reuse.
	StateClosed
)

// String names the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCreating:
		return "creating"
	case StateCreated:
		return "created"
	case StateUserActivating:
		return "user_activating"
	case StateScActivating:
		return "sc_activating"
	case StateScOrphaned:
		return "sc_orphaned"
	case StateUserActivated:
		return "user_activated"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsActive reports whether a session in this state occupies a table slot
// and is eligible for timeout/inactivity accounting.
func (s State) IsActive() bool {
	switch s {
	case StateInit, StateClosed:
		return false
	default:
		return true
	}
}

// EventKind enumerates what a ServiceEvent posted to the Services Looper
// can carry. These mirror the collaborator interfaces in the session
// layer's external-interfaces contract: Secure-Channel events, timer
// events, and application requests all funnel through the same Looper as
// typed events.
type EventKind uint32

const (
	EventCreateSessionRequest EventKind = iota
	EventActivateSessionRequest
	EventCloseSessionRequest
	EventScDisconnected
	EventScConnected
	EventEvalSessionTimeout
	EventCloseAllConnections
)

// String names the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreateSessionRequest:
		return "CreateSessionRequest"
	case EventActivateSessionRequest:
		return "ActivateSessionRequest"
	case EventCloseSessionRequest:
		return "CloseSessionRequest"
	case EventScDisconnected:
		return "ScDisconnected"
	case EventScConnected:
		return "ScConnected"
	case EventEvalSessionTimeout:
		return "EvalSessionTimeout"
	case EventCloseAllConnections:
		return "CloseAllConnections"
	default:
		return fmt.Sprintf("EventKind(%d)", uint32(k))
	}
}
