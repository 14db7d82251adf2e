package cryptoadapter

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"hash"
)

// policyParams holds the primitive choices bound to a SecurityPolicy.
type policyParams struct {
	hash           func() hash.Hash
	signScheme     signScheme
	signAlgoURI    string
	encryptAlgoURI string
	oaepHash       func() hash.Hash
}

type signScheme int

const (
	signPKCS1v15 signScheme = iota
	signPSS
)

var params = map[SecurityPolicy]policyParams{
	PolicyNone: {},
	PolicyBasic256: {
		hash:           sha1.New,
		signScheme:     signPKCS1v15,
		signAlgoURI:    "http://www.w3.org/2000/09/xmldsig#rsa-sha1",
		encryptAlgoURI: "http://www.w3.org/2001/04/xmlenc#rsa-oaep",
		oaepHash:       sha1.New,
	},
	PolicyBasic256Sha256: {
		hash:           sha256.New,
		signScheme:     signPKCS1v15,
		signAlgoURI:    "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256",
		encryptAlgoURI: "http://www.w3.org/2001/04/xmlenc#rsa-oaep",
		oaepHash:       sha1.New,
	},
	PolicyAes128Sha256RsaOaep: {
		hash:           sha256.New,
		signScheme:     signPKCS1v15,
		signAlgoURI:    "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256",
		encryptAlgoURI: "http://www.w3.org/2001/04/xmlenc#rsa-oaep",
		oaepHash:       sha1.New,
	},
	PolicyAes256Sha256RsaPss: {
		hash:           sha256.New,
		signScheme:     signPSS,
		signAlgoURI:    "http://opcfoundation.org/UA/security/rsa-pss-sha2-256",
		encryptAlgoURI: "http://opcfoundation.org/UA/security/rsa-oaep-sha2-256",
		oaepHash:       sha256.New,
	},
}

// SymmetricSecureChannelNonceLength is the fixed challenge-nonce length used
// by every policy in scope.
const SymmetricSecureChannelNonceLength = 32

// Provider wraps crypto/rsa and crypto/x509 operations for one
// SecurityPolicy. The session layer constructs one per active channel
// policy; Providers carry no session-specific state.
type Provider struct {
	policy SecurityPolicy
	p      policyParams
}

// NewProvider constructs a Provider for policy, or ErrUnknownPolicy if
// policy is outside the closed set this adapter implements.
func NewProvider(policy SecurityPolicy) (*Provider, error) {
	if !policy.IsValid() {
		return nil, ErrUnknownPolicy
	}
	return &Provider{policy: policy, p: params[policy]}, nil
}

// Policy returns the provider's bound SecurityPolicy.
func (pr *Provider) Policy() SecurityPolicy { return pr.policy }

// SignAlgorithmURI returns the signature algorithm URI for this policy.
func (pr *Provider) SignAlgorithmURI() string { return pr.p.signAlgoURI }

// EncryptAlgorithmURI returns the asymmetric encryption algorithm URI for
// this policy.
func (pr *Provider) EncryptAlgorithmURI() string { return pr.p.encryptAlgoURI }

// SymmetricSecureChannelNonceLength returns the nonce length used for
// challenge/response on this policy. It is 32 for every supported policy.
func (pr *Provider) SymmetricSecureChannelNonceLength() int {
	return SymmetricSecureChannelNonceLength
}

// SignatureLength returns the byte length a signature produced with priv
// will have — the RSA modulus size.
func (pr *Provider) SignatureLength(priv *rsa.PrivateKey) int {
	return priv.Size()
}

// RandomNonce returns n cryptographically random bytes. Every challenge
// nonce in the session layer uses SymmetricSecureChannelNonceLength.
func (pr *Provider) RandomNonce(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RandomID returns a random 32-bit value, used for fields such as
// AuthenticationToken identifiers that only need unpredictability, not a
// fixed format.
func (pr *Provider) RandomID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// AsymmetricSign signs plaintext with priv under this policy's signature
// scheme and hash.
func (pr *Provider) AsymmetricSign(plaintext []byte, priv *rsa.PrivateKey) ([]byte, error) {
	if pr.policy == PolicyNone || len(plaintext) == 0 {
		return nil, ErrSignatureInvalid
	}
	digest := pr.digest(plaintext)
	switch pr.p.signScheme {
	case signPSS:
		return rsa.SignPSS(rand.Reader, priv, pr.hashID(), digest, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: pr.hashID()})
	default:
		return rsa.SignPKCS1v15(rand.Reader, priv, pr.hashID(), digest)
	}
}

// AsymmetricVerify verifies signature over plaintext against pub under this
// policy's signature scheme and hash. A zero-length signature always fails.
func (pr *Provider) AsymmetricVerify(plaintext, signature []byte, pub *rsa.PublicKey) error {
	if pr.policy == PolicyNone || len(plaintext) == 0 || len(signature) == 0 {
		return ErrSignatureInvalid
	}
	digest := pr.digest(plaintext)
	var err error
	switch pr.p.signScheme {
	case signPSS:
		err = rsa.VerifyPSS(pub, pr.hashID(), digest, signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: pr.hashID()})
	default:
		err = rsa.VerifyPKCS1v15(pub, pr.hashID(), digest, signature)
	}
	if err != nil {
		return ErrSignatureInvalid
	}
	return nil
}

// AsymmetricEncrypt RSA-OAEP encrypts plaintext under pub using this
// policy's OAEP hash.
func (pr *Provider) AsymmetricEncrypt(plaintext []byte, pub *rsa.PublicKey) ([]byte, error) {
	return rsa.EncryptOAEP(pr.p.oaepHash(), rand.Reader, pub, plaintext, nil)
}

// AsymmetricDecrypt RSA-OAEP decrypts ciphertext with priv using this
// policy's OAEP hash.
func (pr *Provider) AsymmetricDecrypt(ciphertext []byte, priv *rsa.PrivateKey) ([]byte, error) {
	return rsa.DecryptOAEP(pr.p.oaepHash(), rand.Reader, priv, ciphertext, nil)
}

// EncryptedLength returns the ciphertext length AsymmetricEncrypt will
// produce for a plaintextLen-byte input under pub — equal to the RSA
// modulus size for OAEP.
func (pr *Provider) EncryptedLength(pub *rsa.PublicKey, plaintextLen int) int {
	return pub.Size()
}

func (pr *Provider) digest(plaintext []byte) []byte {
	h := pr.p.hash()
	h.Write(plaintext)
	return h.Sum(nil)
}

func (pr *Provider) hashID() crypto.Hash {
	if pr.p.hash == nil {
		return 0
	}
	// Distinguish by output size: both hash.New funcs in params are either
	// sha1.New or sha256.New.
	h := pr.p.hash()
	if h.Size() == sha1.Size {
		return crypto.SHA1
	}
	return crypto.SHA256
}

// CertificateFromDER parses a DER-encoded X.509 certificate, matching the
// adapter's certificate_from_der operation.
func CertificateFromDER(der []byte) (*x509.Certificate, error) {
	return x509.ParseCertificate(der)
}

// PublicKeyFromCertificate extracts the RSA public key from cert, failing
// with ErrNotRSAKey if the certificate doesn't carry one (every policy this
// adapter supports requires an RSA certificate).
func PublicKeyFromCertificate(cert *x509.Certificate) (*rsa.PublicKey, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return pub, nil
}
