package usertoken

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
)

type fakeAuth struct {
	status ValidationStatus
}

func (f fakeAuth) Validate(Token) ValidationStatus { return f.status }

func TestShallowCopyDetachesFromSource(t *testing.T) {
	password := []byte("hunter2")
	src := Token{Kind: KindUserNamePassword, Username: "alice", Password: password}

	copied := src.Shallow()
	password[0] = 'X' // mutate the "request buffer"

	assert.Equal(t, byte('h'), copied.Password[0])
}

func TestPasswordEncryptDecryptRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pr, err := cryptoadapter.NewProvider(cryptoadapter.PolicyBasic256Sha256)
	require.NoError(t, err)

	nonce := make([]byte, 32)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	ciphertext, err := EncryptPassword(pr, []byte("hunter2"), nonce, &key.PublicKey)
	require.NoError(t, err)

	plain, err := DecryptPassword(pr, ciphertext, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), plain)
}

func TestPasswordDecryptRejectsNonceMismatch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pr, err := cryptoadapter.NewProvider(cryptoadapter.PolicyBasic256Sha256)
	require.NoError(t, err)

	nonceA := make([]byte, 32)
	nonceB := make([]byte, 32)
	nonceB[0] = 1

	ciphertext, err := EncryptPassword(pr, []byte("hunter2"), nonceA, &key.PublicKey)
	require.NoError(t, err)

	_, err = DecryptPassword(pr, ciphertext, nonceB, key)
	assert.ErrorIs(t, err, ErrNonceMismatch)
}

func TestSelectPolicyFirstMatchWins(t *testing.T) {
	policies := []Policy{
		{PolicyID: "anon", Kind: KindAnonymous},
		{PolicyID: "user", Kind: KindUserNamePassword, SecurityPolicy: "A"},
		{PolicyID: "user", Kind: KindUserNamePassword, SecurityPolicy: "B"},
	}
	got, err := SelectPolicy(policies, Token{PolicyID: "user", Kind: KindUserNamePassword})
	require.NoError(t, err)
	assert.Equal(t, "A", got.SecurityPolicy)
}

func TestCheckPlaintextPasswordForbidden(t *testing.T) {
	tok := Token{Kind: KindUserNamePassword, PasswordAlgorithm: ""}
	policy := Policy{SecurityPolicy: "http://opcfoundation.org/UA/SecurityPolicy#None"}

	assert.ErrorIs(t, CheckPlaintextPasswordAllowed(tok, policy, ModeSign), ErrForbiddenPlaintextPassword)
	assert.NoError(t, CheckPlaintextPasswordAllowed(tok, policy, ModeSignAndEncrypt))
}

func TestProcessActivationAnonymousSkipsPolicyCheck(t *testing.T) {
	in := ProcessActivationInput{
		Raw:  Token{Kind: KindAnonymous, PolicyID: "anon"},
		Auth: fakeAuth{status: StatusOk},
	}
	got, err := ProcessActivation(in)
	require.NoError(t, err)
	assert.Equal(t, KindAnonymous, got.Kind)
}

func TestProcessActivationAuthFailureMapsError(t *testing.T) {
	in := ProcessActivationInput{
		Raw:  Token{Kind: KindAnonymous},
		Auth: fakeAuth{status: StatusAccessDenied},
	}
	_, err := ProcessActivation(in)
	assert.ErrorIs(t, err, ErrUserAccessDenied)
}
