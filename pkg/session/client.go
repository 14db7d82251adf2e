package session

import (
	"crypto/rsa"
	"crypto/x509"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
)

// ClientDeps bundles the collaborators the client-side transitions need:
// the crypto provider factory, the client's own certificate/key pair (used
// to sign server_certificate||server_nonce), and the length of the client
// nonce it generates for CreateSession.
type ClientDeps struct {
	ProviderFor func(cryptoadapter.SecurityPolicy) (*cryptoadapter.Provider, error)
	ClientCert  []byte
	ClientKey   *rsa.PrivateKey
	NonceLength int
}

// ClientCreateSessionRequest is what the application asks the client side
// to send.
type ClientCreateSessionRequest struct {
	Policy         cryptoadapter.SecurityPolicy
	ApplicationURI string
	RequestedTimeoutMs uint32
	AppContext     *AppContext
}

// ClientCreateSessionWire is the outgoing request the client transmits,
// carrying the nonce it generated so the server can echo it back.
type ClientCreateSessionWire struct {
	ClientNonce       []byte
	ClientCertificate []byte
	ApplicationURI    string
	RequestedTimeoutMs uint32
}

// clientBeginCreateSession allocates a client table slot and builds the
// outgoing CreateSessionRequest wire fields. The slot is left in
// StateCreating until clientHandleCreateSessionResponse completes it.
func clientBeginCreateSession(t *table, d ClientDeps, req ClientCreateSessionRequest) (*ClientSessionRecord, ClientCreateSessionWire, error) {
	pr, err := d.ProviderFor(req.Policy)
	if err != nil {
		return nil, ClientCreateSessionWire{}, newStatusErr(StatusBadUnexpectedError, err.Error())
	}
	nonce, err := pr.RandomNonce(d.NonceLength)
	if err != nil {
		return nil, ClientCreateSessionWire{}, newStatusErr(StatusBadUnexpectedError, err.Error())
	}

	r, err := t.allocateClient()
	if err != nil {
		return nil, ClientCreateSessionWire{}, ErrTooManySessions
	}
	r.ClientNonce = nonce
	r.Policy = req.Policy
	r.RevisedSessionTimeoutMs = req.RequestedTimeoutMs
	r.AppContext = req.AppContext
	r.LastActivityAt = monotonicNow()

	return r, ClientCreateSessionWire{
		ClientNonce:        append([]byte{}, nonce...),
		ClientCertificate:  d.ClientCert,
		ApplicationURI:     req.ApplicationURI,
		RequestedTimeoutMs: req.RequestedTimeoutMs,
	}, nil
}

// ClientCreateSessionReply is the subset of CreateSessionResponse's fields
// the client-side state machine needs.
type ClientCreateSessionReply struct {
	SessionID         ID
	AuthToken         AuthToken
	ServerNonce       []byte
	ServerCertificate []byte // DER, owned copy taken below
}

// clientHandleCreateSessionResponse binds the session id/auth token,
// takes an explicit owned copy of the server certificate (Open Question
// Decision: never alias into the decoded response buffer), and moves the
// record to StateCreated. If the user identity the application intends to
// activate with requires a security policy other than None but the server
// presented no certificate at all, the client aborts locally — without
// ever sending ActivateSession — since there is no key to encrypt or
// verify against.
func clientHandleCreateSessionResponse(t *table, id ID, reply ClientCreateSessionReply, policy usertoken.Policy) error {
	r, err := t.clientByID(id)
	if err != nil {
		return ErrSessionIDInvalid
	}

	if len(reply.ServerCertificate) == 0 && policy.Kind != usertoken.KindAnonymous {
		r.State = StateClosed
		t.freeClient(id)
		return ErrCertificateURIInvalid
	}

	r.ServerSessionID = reply.SessionID
	r.AuthToken = reply.AuthToken
	r.ServerNonce = append([]byte{}, reply.ServerNonce...)
	r.ServerCertificate = append([]byte{}, reply.ServerCertificate...)
	r.State = StateCreated
	return nil
}

// ClientActivateSessionRequest is what the application asks the client to
// send to (re)activate a session.
type ClientActivateSessionRequest struct {
	SessionID   ID
	RawUserToken usertoken.Token
	Policy      usertoken.Policy
	ChannelMode usertoken.ChannelSecurityMode
}

// ClientActivateSessionWire is the outgoing ActivateSession request: a
// client signature over server_certificate||server_nonce and the (possibly
// password-encrypted) user token ready to transmit.
type ClientActivateSessionWire struct {
	SessionID       ID
	AuthToken       AuthToken
	ClientSignature []byte
	UserToken       usertoken.Token
}

// clientBeginActivateSession computes the client signature and, for an
// encrypted username/password token, the RSA-OAEP envelope, then moves the
// record into StateUserActivating.
func clientBeginActivateSession(t *table, d ClientDeps, req ClientActivateSessionRequest) (*ClientSessionRecord, ClientActivateSessionWire, error) {
	r, err := t.clientByID(req.SessionID)
	if err != nil {
		return nil, ClientActivateSessionWire{}, ErrSessionIDInvalid
	}
	switch r.State {
	case StateCreated, StateUserActivated, StateScOrphaned:
	default:
		return nil, ClientActivateSessionWire{}, ErrSessionNotActivated
	}

	if err := usertoken.CheckPlaintextPasswordAllowed(req.RawUserToken, req.Policy, req.ChannelMode); err != nil {
		return nil, ClientActivateSessionWire{}, err
	}

	pr, err := d.ProviderFor(r.Policy)
	if err != nil {
		return nil, ClientActivateSessionWire{}, newStatusErr(StatusBadUnexpectedError, err.Error())
	}

	plaintext := append(append([]byte{}, r.ServerCertificate...), r.ServerNonce...)
	sig, err := pr.AsymmetricSign(plaintext, d.ClientKey)
	if err != nil {
		return nil, ClientActivateSessionWire{}, ErrInvalidParameters
	}

	tok := req.RawUserToken
	if tok.Kind == usertoken.KindUserNamePassword && tok.PasswordAlgorithm != "" {
		cert, err := x509.ParseCertificate(r.ServerCertificate)
		if err != nil {
			return nil, ClientActivateSessionWire{}, ErrCertificateURIInvalid
		}
		pub, err := cryptoadapter.PublicKeyFromCertificate(cert)
		if err != nil {
			return nil, ClientActivateSessionWire{}, newStatusErr(StatusBadUnexpectedError, err.Error())
		}
		enc, err := usertoken.EncryptPassword(pr, tok.Password, r.ServerNonce, pub)
		if err != nil {
			return nil, ClientActivateSessionWire{}, newStatusErr(StatusBadUnexpectedError, err.Error())
		}
		tok.Password = enc
	}

	r.ClientSignature = sig
	r.State = StateUserActivating

	return r, ClientActivateSessionWire{
		SessionID:       r.ServerSessionID,
		AuthToken:       r.AuthToken,
		ClientSignature: append([]byte{}, sig...),
		UserToken:       tok,
	}, nil
}

// clientHandleActivateSessionResponse stores the fresh server nonce for
// the next re-activation and moves the record to StateUserActivated.
func clientHandleActivateSessionResponse(t *table, id ID, serverNonce []byte) error {
	r, err := t.clientByID(id)
	if err != nil {
		return ErrSessionIDInvalid
	}
	zeroBytes(r.ServerNonce)
	r.ServerNonce = append([]byte{}, serverNonce...)
	r.State = StateUserActivated
	r.LastActivityAt = monotonicNow()
	return nil
}

// clientHandleActivationFailure reverts a failed (re)activation attempt to
// the prior stable state rather than leaving the record parked mid-flight.
func clientHandleActivationFailure(t *table, id ID, wasReactivation bool) {
	r, err := t.clientByID(id)
	if err != nil {
		return
	}
	if wasReactivation {
		r.State = StateUserActivated
	} else {
		r.State = StateCreated
	}
}

// clientClose implements the client-side closing → closed path.
func clientClose(t *table, id ID) {
	t.freeClient(id)
}
