package session

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"time"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
)

// CreateSessionRequest is the subset of CreateSessionRequest's fields the
// state machine needs.
type CreateSessionRequest struct {
	ChannelID         uint32
	Policy            cryptoadapter.SecurityPolicy
	ClientNonce       []byte
	ClientCertificate []byte // DER, empty if the channel policy is None
	ApplicationURI    string // from ClientDescription, "" if not asserted
	RequestedTimeoutMs uint32
}

// CreateSessionResponse is what the server returns to the client.
type CreateSessionResponse struct {
	SessionID   ID
	AuthToken   AuthToken
	ServerNonce []byte
	// No server signature is carried: neither createSession nor
	// Manager.CreateSession computes one; the state machine only produces
	// the nonce and token.
}

// ActivateSessionRequest is the subset of ActivateSessionRequest's fields.
type ActivateSessionRequest struct {
	SessionID       ID
	AuthToken       AuthToken
	ChannelID       uint32
	ClientSignature []byte
	RawUserToken    usertoken.Token
	Policies        []usertoken.Policy
	ChannelMode     usertoken.ChannelSecurityMode
}

// ActivateSessionResponse carries the fresh server_nonce issued so the
// next re-activation requires a new signature.
type ActivateSessionResponse struct {
	ServerNonce []byte
}

// Deps bundles the collaborators transitions need: a crypto provider
// factory keyed by policy, the server's own certificate/key pair, a trust
// list for user x509 validation, and the authentication manager.
type Deps struct {
	ProviderFor func(cryptoadapter.SecurityPolicy) (*cryptoadapter.Provider, error)
	ServerCert  []byte
	ServerKey   *rsa.PrivateKey
	Trust       cryptoadapter.TrustList
	Auth        usertoken.AuthenticationManager
	MinTimeout  uint32
	MaxTimeout  uint32
	NonceLength int
}

func clampTimeout(requested, min, max uint32) uint32 {
	if requested < min {
		return min
	}
	if requested > max {
		return max
	}
	return requested
}

// createSession implements the init → creating → created path: validates
// the client nonce and ApplicationUri/SAN match, reserves a slot,
// generates the server nonce and auth token, and leaves the record in
// StateCreated.
func createSession(t *table, d Deps, req CreateSessionRequest) (*ServerSessionRecord, CreateSessionResponse, error) {
	if len(req.ClientNonce) < d.NonceLength {
		return nil, CreateSessionResponse{}, ErrNonceInvalid
	}

	if req.ApplicationURI != "" && len(req.ClientCertificate) > 0 {
		cert, err := x509.ParseCertificate(req.ClientCertificate)
		if err != nil || !certHasURI(cert, req.ApplicationURI) {
			return nil, CreateSessionResponse{}, ErrCertificateURIInvalid
		}
	}

	r, err := t.allocateServer()
	if err != nil {
		return nil, CreateSessionResponse{}, ErrTooManySessions
	}

	pr, err := d.ProviderFor(req.Policy)
	if err != nil {
		t.freeServer(r.ID)
		return nil, CreateSessionResponse{}, newStatusErr(StatusBadUnexpectedError, err.Error())
	}

	nonce, err := pr.RandomNonce(d.NonceLength)
	if err != nil {
		t.freeServer(r.ID)
		return nil, CreateSessionResponse{}, newStatusErr(StatusBadUnexpectedError, err.Error())
	}

	authTokenVal, err := pr.RandomID()
	var authToken AuthToken
	if err != nil {
		// Open Question Decision: treat random-id failure as falling
		// back to the session id, not as success with a garbage token.
		authToken = AuthToken(r.ID)
	} else {
		authToken = AuthToken(authTokenVal)
	}

	r.ClientNonce = req.ClientNonce
	r.ServerNonce = nonce
	r.AuthToken = authToken
	r.Policy = req.Policy
	r.ChannelID = req.ChannelID
	r.ClientCertificate = req.ClientCertificate
	r.RevisedSessionTimeoutMs = clampTimeout(req.RequestedTimeoutMs, d.MinTimeout, d.MaxTimeout)
	r.LastMsgReceivedAt = monotonicNow()
	r.State = StateCreated

	return r, CreateSessionResponse{
		SessionID:   r.ID,
		AuthToken:   authToken,
		ServerNonce: append([]byte{}, nonce...),
	}, nil
}

func certHasURI(cert *x509.Certificate, uri string) bool {
	for _, u := range cert.URIs {
		if u.String() == uri {
			return true
		}
	}
	return false
}

// activateSession implements the created/user_activated/sc_orphaned →
// user_activated transitions: verify the client signature over
// server_certificate||server_nonce, run the four-step user-token pipeline,
// and on success bind the user and issue a fresh server_nonce.
func activateSession(t *table, d Deps, req ActivateSessionRequest) (*ServerSessionRecord, ActivateSessionResponse, bool /*reactivation*/, error) {
	r, err := t.serverByID(req.SessionID)
	if err != nil {
		return nil, ActivateSessionResponse{}, false, ErrSessionIDInvalid
	}
	if r.AuthToken != req.AuthToken {
		return nil, ActivateSessionResponse{}, false, ErrSessionIDInvalid
	}
	switch r.State {
	case StateCreated, StateUserActivated, StateScOrphaned:
	default:
		return nil, ActivateSessionResponse{}, false, ErrSessionNotActivated
	}

	reactivation := r.State == StateUserActivated || r.State == StateScOrphaned
	priorState := r.State
	if priorState == StateScOrphaned {
		r.State = StateScActivating
	} else {
		r.State = StateUserActivating
	}

	pr, err := d.ProviderFor(r.Policy)
	if err != nil {
		r.State = priorState
		zeroBytes(r.ServerNonce)
		r.ServerNonce = nil
		return nil, ActivateSessionResponse{}, reactivation, newStatusErr(StatusBadUnexpectedError, err.Error())
	}

	if len(req.ClientCertificate(r)) > 0 {
		cert, err := x509.ParseCertificate(req.ClientCertificate(r))
		if err != nil {
			r.State = priorState
			zeroBytes(r.ServerNonce)
			r.ServerNonce = nil
			return nil, ActivateSessionResponse{}, reactivation, ErrCertificateURIInvalid
		}
		pub, err := cryptoadapter.PublicKeyFromCertificate(cert)
		if err != nil {
			r.State = priorState
			zeroBytes(r.ServerNonce)
			r.ServerNonce = nil
			return nil, ActivateSessionResponse{}, reactivation, newStatusErr(StatusBadUnexpectedError, err.Error())
		}
		plaintext := append(append([]byte{}, d.ServerCert...), r.ServerNonce...)
		if verr := pr.AsymmetricVerify(plaintext, req.ClientSignature, pub); verr != nil {
			r.State = priorState
			// server_nonce is cleared on this failure too: the challenge
			// must not survive a failed activation attempt to be retried
			// against (forward secrecy of the challenge).
			zeroBytes(r.ServerNonce)
			r.ServerNonce = nil
			return nil, ActivateSessionResponse{}, reactivation, ErrUserSignatureInvalid
		}
	}

	result, uerr := usertoken.ProcessActivation(usertoken.ProcessActivationInput{
		Raw:               req.RawUserToken,
		Policies:          req.Policies,
		ServerCertificate: d.ServerCert,
		ServerNonce:       r.ServerNonce,
		ServerPrivateKey:  d.ServerKey,
		Trust:             d.Trust,
		ChannelMode:       req.ChannelMode,
		ChannelPolicy:     r.Policy,
		Auth:              d.Auth,
	})

	// server_nonce is cleared immediately on this activation attempt,
	// whether it succeeds or fails (forward secrecy of the challenge).
	zeroBytes(r.ServerNonce)
	r.ServerNonce = nil

	if uerr != nil {
		r.State = priorState
		return nil, ActivateSessionResponse{}, reactivation, newStatusErr(mapUserTokenStatus(uerr), uerr.Error())
	}

	sameUser := sameIdentity(r.User, result)
	r.User.Clear()
	r.User = result
	r.ChannelID = req.ChannelID

	freshNonce, err := pr.RandomNonce(d.NonceLength)
	if err != nil {
		r.State = StateClosing
		return r, ActivateSessionResponse{}, reactivation, newStatusErr(StatusBadUnexpectedError, err.Error())
	}
	r.ServerNonce = freshNonce
	r.State = StateUserActivated
	r.LastMsgReceivedAt = monotonicNow()

	_ = sameUser // computed but neither returned nor stored
	return r, ActivateSessionResponse{ServerNonce: append([]byte{}, freshNonce...)}, reactivation, nil
}

// mapUserTokenStatus translates an error returned by
// usertoken.ProcessActivation into the wire-facing Status the Application
// Dispatcher and ActivateSessionResponse report. usertoken's own
// sentinels are distinct error values from this package's own
// StatusError sentinels, so every usertoken failure must be translated
// here rather than relying on a *StatusError type assertion upstream.
func mapUserTokenStatus(err error) Status {
	switch {
	case errors.Is(err, usertoken.ErrIdentityTokenInvalid):
		return StatusBadIdentityTokenInvalid
	case errors.Is(err, usertoken.ErrIdentityTokenRejected):
		return StatusBadIdentityTokenRejected
	case errors.Is(err, usertoken.ErrUserAccessDenied):
		return StatusBadUserAccessDenied
	case errors.Is(err, usertoken.ErrUserSignatureInvalid):
		return StatusBadUserSignatureInvalid
	case errors.Is(err, usertoken.ErrSignatureAlgorithmMismatch):
		return StatusBadUserSignatureInvalid
	case errors.Is(err, usertoken.ErrNonceMismatch):
		// A mismatched embedded nonce is indistinguishable from a replayed
		// or forged password envelope, so it is reported the same as a
		// denied identity rather than as a distinct status.
		return StatusBadUserAccessDenied
	case errors.Is(err, usertoken.ErrEncodingInvalid),
		errors.Is(err, usertoken.ErrForbiddenPlaintextPassword),
		errors.Is(err, usertoken.ErrPolicyMismatch),
		errors.Is(err, usertoken.ErrCertificateMissing),
		errors.Is(err, usertoken.ErrUnknownKind):
		return StatusBadIdentityTokenInvalid
	default:
		return StatusBadUnexpectedError
	}
}

// sameIdentity compares users across re-activations by identity equality
// (Kind, plus Username for password tokens, certificate bytes for x509
// tokens and issued data for issued tokens; PolicyId is not compared. This
// is the closest the
// adapter can get without a real Authorization Manager identity; callers
// with a richer Authorization Manager should prefer its own identity
// comparison and ignore this heuristic).
func sameIdentity(a, b usertoken.Token) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case usertoken.KindAnonymous:
		return true
	case usertoken.KindUserNamePassword:
		return a.Username == b.Username
	case usertoken.KindX509Certificate:
		return string(a.Certificate) == string(b.Certificate)
	case usertoken.KindIssuedToken:
		return string(a.IssuedData) == string(b.IssuedData)
	default:
		return false
	}
}

// closeSession implements the closing → closed path: validates the
// request is well-formed (known session, matching token) and frees the
// slot.
func closeSession(t *table, id ID, authToken AuthToken) error {
	r, err := t.serverByID(id)
	if err != nil {
		return ErrSessionIDInvalid
	}
	if r.AuthToken != authToken {
		return ErrSessionIDInvalid
	}
	r.State = StateClosing
	t.freeServer(id)
	return nil
}

// evalSessionTimeout implements the §4.6 renewal algorithm: if elapsed
// since the last received message is still under the revised timeout, it
// reports the remaining duration to re-arm; otherwise it closes the
// session and reports zero remaining.
func evalSessionTimeout(t *table, id ID) (remaining time.Duration, closed bool) {
	r, err := t.serverByID(id)
	if err != nil {
		return 0, true
	}
	elapsed := monotonicNow().Sub(r.LastMsgReceivedAt)
	budget := time.Duration(r.RevisedSessionTimeoutMs) * time.Millisecond
	if elapsed < budget {
		return budget - elapsed, false
	}
	r.State = StateClosing
	t.freeServer(id)
	return 0, true
}

// scDisconnected implements the user_activated → sc_orphaned transition:
// the timeout timer keeps running untouched.
func scDisconnected(t *table, channelID uint32) []ID {
	var affected []ID
	t.forEachActiveServer(func(r *ServerSessionRecord) {
		if r.State == StateUserActivated && r.ChannelID == channelID {
			r.State = StateScOrphaned
			r.ChannelID = 0
			affected = append(affected, r.ID)
		}
	})
	return affected
}

// ClientCertificate returns the client certificate bound to r at
// CreateSession. ActivateSessionRequest carries no certificate of its own,
// so every activation, including one on a new Secure Channel, is verified
// against that certificate.
func (req ActivateSessionRequest) ClientCertificate(r *ServerSessionRecord) []byte {
	return r.ClientCertificate
}

var monotonicNow = func() time.Time { return time.Now() }
