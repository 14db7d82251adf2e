package session

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
)

func genSelfSignedCertAndKey(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{SerialNumber: big.NewInt(1)}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return der, key
}

// TestClientServerAnonymousActivateRoundTrip drives the client-side
// functions against a real server Manager, end to end: CreateSession,
// ActivateSession with an anonymous token, and the fresh-nonce response —
// confirming the client's signature over server_certificate||server_nonce
// verifies against what the server actually checks.
func TestClientServerAnonymousActivateRoundTrip(t *testing.T) {
	serverKey := genServerKey(t)
	serverCert := []byte("server-certificate-bytes")
	m, err := NewManager(Config{
		MaxSessions:       4,
		ServerCertificate: serverCert,
		ServerKey:         serverKey,
		Auth:              alwaysOKAuth{},
	})
	require.NoError(t, err)

	clientCert, clientKey := genSelfSignedCertAndKey(t)

	createResp, err := m.CreateSession(CreateSessionRequest{
		ChannelID:         1,
		Policy:            cryptoadapter.PolicyBasic256Sha256,
		ClientNonce:       make([]byte, 32),
		ClientCertificate: clientCert,
	})
	require.NoError(t, err)

	rec, err := m.SessionByID(createResp.SessionID)
	require.NoError(t, err)
	serverNonce := append([]byte{}, rec.ServerNonce...)

	clientDeps := ClientDeps{
		ProviderFor: cryptoadapter.NewProvider,
		ClientCert:  clientCert,
		ClientKey:   clientKey,
		NonceLength: 32,
	}
	ct := newTable(4)

	cr, _, err := clientBeginCreateSession(ct, clientDeps, ClientCreateSessionRequest{
		Policy:             cryptoadapter.PolicyBasic256Sha256,
		RequestedTimeoutMs: 60000,
	})
	require.NoError(t, err)

	err = clientHandleCreateSessionResponse(ct, cr.ID, ClientCreateSessionReply{
		SessionID:         createResp.SessionID,
		AuthToken:         createResp.AuthToken,
		ServerNonce:       serverNonce,
		ServerCertificate: serverCert,
	}, usertoken.Policy{Kind: usertoken.KindAnonymous})
	require.NoError(t, err)

	_, actWire, err := clientBeginActivateSession(ct, clientDeps, ClientActivateSessionRequest{
		SessionID:    cr.ID,
		RawUserToken: usertoken.Token{Kind: usertoken.KindAnonymous, PolicyID: "anon"},
		Policy:       usertoken.Policy{Kind: usertoken.KindAnonymous},
		ChannelMode:  usertoken.ModeSignAndEncrypt,
	})
	require.NoError(t, err)

	activateResp, err := m.ActivateSession(ActivateSessionRequest{
		SessionID:       actWire.SessionID,
		AuthToken:       actWire.AuthToken,
		ChannelID:       1,
		ClientSignature: actWire.ClientSignature,
		RawUserToken:    actWire.UserToken,
	}, nil)
	require.NoError(t, err)

	err = clientHandleActivateSessionResponse(ct, cr.ID, activateResp.ServerNonce)
	require.NoError(t, err)

	finalRec, err := ct.clientByID(cr.ID)
	require.NoError(t, err)
	assert.Equal(t, StateUserActivated, finalRec.State)
	assert.Equal(t, createResp.SessionID, finalRec.ServerSessionID)
}

func TestClientAbortsWhenServerCertificateMissingForNonAnonymousPolicy(t *testing.T) {
	ct := newTable(2)
	clientDeps := ClientDeps{ProviderFor: cryptoadapter.NewProvider, NonceLength: 32}

	cr, _, err := clientBeginCreateSession(ct, clientDeps, ClientCreateSessionRequest{Policy: cryptoadapter.PolicyBasic256Sha256})
	require.NoError(t, err)

	err = clientHandleCreateSessionResponse(ct, cr.ID, ClientCreateSessionReply{
		SessionID: ID(1),
		AuthToken: AuthToken(1),
	}, usertoken.Policy{Kind: usertoken.KindUserNamePassword})
	assert.ErrorIs(t, err, ErrCertificateURIInvalid)

	_, err = ct.clientByID(cr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientHandleActivationFailureRevertsToPriorState(t *testing.T) {
	ct := newTable(2)
	r, err := ct.allocateClient()
	require.NoError(t, err)
	r.State = StateUserActivated

	clientHandleActivationFailure(ct, r.ID, true)
	assert.Equal(t, StateUserActivated, r.State)

	r.State = StateUserActivating
	clientHandleActivationFailure(ct, r.ID, false)
	assert.Equal(t, StateCreated, r.State)
}

func TestClientCloseFreesSlot(t *testing.T) {
	ct := newTable(2)
	r, err := ct.allocateClient()
	require.NoError(t, err)

	clientClose(ct, r.ID)

	_, err = ct.clientByID(r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
