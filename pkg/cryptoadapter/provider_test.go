package cryptoadapter

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestPolicyFromURIRoundTrip(t *testing.T) {
	for _, p := range []SecurityPolicy{PolicyNone, PolicyBasic256, PolicyBasic256Sha256, PolicyAes128Sha256RsaOaep, PolicyAes256Sha256RsaPss} {
		got, err := PolicyFromURI(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := PolicyFromURI("not-a-policy")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := genKey(t)
	for _, policy := range []SecurityPolicy{PolicyBasic256, PolicyBasic256Sha256, PolicyAes128Sha256RsaOaep, PolicyAes256Sha256RsaPss} {
		pr, err := NewProvider(policy)
		require.NoError(t, err)

		plaintext := []byte("server_certificate || server_nonce")
		sig, err := pr.AsymmetricSign(plaintext, key)
		require.NoError(t, err)
		assert.Len(t, sig, pr.SignatureLength(key))

		require.NoError(t, pr.AsymmetricVerify(plaintext, sig, &key.PublicKey))

		tampered := append([]byte{}, plaintext...)
		tampered[0] ^= 0xFF
		assert.ErrorIs(t, pr.AsymmetricVerify(tampered, sig, &key.PublicKey), ErrSignatureInvalid)
	}
}

func TestVerifyRejectsZeroLengthInputs(t *testing.T) {
	pr, err := NewProvider(PolicyBasic256Sha256)
	require.NoError(t, err)
	key := genKey(t)

	assert.ErrorIs(t, pr.AsymmetricVerify(nil, []byte{1}, &key.PublicKey), ErrSignatureInvalid)
	assert.ErrorIs(t, pr.AsymmetricVerify([]byte("x"), nil, &key.PublicKey), ErrSignatureInvalid)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := genKey(t)
	pr, err := NewProvider(PolicyBasic256Sha256)
	require.NoError(t, err)

	plaintext := []byte("hunter2")
	ciphertext, err := pr.AsymmetricEncrypt(plaintext, &key.PublicKey)
	require.NoError(t, err)
	assert.Len(t, ciphertext, pr.EncryptedLength(&key.PublicKey, len(plaintext)))

	decoded, err := pr.AsymmetricDecrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decoded)
}

func TestRandomNonceLength(t *testing.T) {
	pr, err := NewProvider(PolicyNone)
	require.NoError(t, err)
	n, err := pr.RandomNonce(pr.SymmetricSecureChannelNonceLength())
	require.NoError(t, err)
	assert.Len(t, n, 32)
}

func TestCertificateValidateRejectsNilCertificate(t *testing.T) {
	err := CertificateValidate(TrustList{}, nil)
	assert.ErrorIs(t, err, ErrNoCertificate)
}
