package session

import (
	"time"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
)

// ID is a session's small integer identifier, 1..MaxSessions. Zero is
// never a valid id; it marks an unset field.
type ID uint32

// AuthToken is the numeric node identifier the server hands the client on
// CreateSessionResponse and the client echoes on every subsequent request
// on that session. It is compared by structural (==) equality.
type AuthToken uint32

// AppContext is the client-side owned opaque application context attached
// to a session when its CreateSession request is built: the application's own
// correlation value plus the session's display name.
type AppContext struct {
	Opaque      any
	SessionName string
}

// ServerSessionRecord is one slot of the server-side session table.
type ServerSessionRecord struct {
	ID    ID
	State State

	AuthToken AuthToken

	// ServerNonce is non-empty only while awaiting an activation that
	// will consume it; cleared immediately on that activation whether it
	// succeeds or fails.
	ServerNonce []byte

	// ClientNonce is the nonce the client presented on CreateSessionRequest.
	ClientNonce []byte

	// SignatureBuffer is zeroed by Clear; no transition writes to it, so it
	// stays empty (the verified client signature is not retained).
	SignatureBuffer []byte

	// User is the currently bound identity. Zero value (Kind ==
	// usertoken.KindAnonymous with no fields set) before first activation.
	User usertoken.Token

	// ServerCertificate is not set by createSession; activateSession
	// verifies the client signature (server_certificate||server_nonce)
	// against Deps.ServerCert and decrypts with Deps.ServerKey instead.
	ServerCertificate []byte

	// ClientCertificate is the Secure Channel's peer application instance
	// certificate, used to verify the client's activation signature and
	// to check the ApplicationUri/SAN match on CreateSession.
	ClientCertificate []byte

	Policy cryptoadapter.SecurityPolicy

	RevisedSessionTimeoutMs uint32
	LastMsgReceivedAt       time.Time

	// ChannelID is the Secure Channel currently bound to this session, or
	// 0 while sc_orphaned.
	ChannelID uint32
}

// Clear zeroes every secret-bearing buffer the record owns and resets it
// to the free-slot zero value. Called when a slot is freed on close.
func (r *ServerSessionRecord) Clear() {
	zeroBytes(r.ServerNonce)
	zeroBytes(r.ClientNonce)
	zeroBytes(r.SignatureBuffer)
	zeroBytes(r.ClientCertificate)
	r.User.Clear()
	*r = ServerSessionRecord{ID: r.ID}
}

// ClientSessionRecord is one slot of the client-side session table.
type ClientSessionRecord struct {
	ID    ID
	State State

	// ServerSessionID is the SessionId the server assigned on
	// CreateSessionResponse, carried on the wire with every subsequent
	// request. It is distinct from ID, which is this record's own table
	// slot index and never leaves the client.
	ServerSessionID ID

	AuthToken AuthToken

	ServerNonce []byte // most recent nonce received from the server
	ClientNonce []byte

	// ClientSignature is the signature this client computed over
	// server_certificate||server_nonce for the most recent (re)activation.
	ClientSignature []byte

	// ServerCertificate is an owned copy taken at shallow-copy time — the
	// wire message it decoded from may be freed once handling returns, so
	// the client never retains a reference into it (design decision: take
	// an explicit owned copy rather than borrow).
	ServerCertificate []byte

	User usertoken.Token

	Policy cryptoadapter.SecurityPolicy

	RevisedSessionTimeoutMs uint32
	LastActivityAt          time.Time

	ChannelID uint32

	// AppContext is the owned heap object carrying the application's
	// opaque context value and session name; client-side only.
	AppContext *AppContext
}

// Clear zeroes secret-bearing buffers and resets the record to its
// free-slot zero value.
func (r *ClientSessionRecord) Clear() {
	zeroBytes(r.ServerNonce)
	zeroBytes(r.ClientNonce)
	zeroBytes(r.ClientSignature)
	zeroBytes(r.ServerCertificate)
	r.User.Clear()
	*r = ClientSessionRecord{ID: r.ID}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
