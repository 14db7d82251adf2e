package cryptoadapter

import "errors"

var (
	// ErrUnknownPolicy is returned when a policy URI doesn't match a known
	// SecurityPolicy.
	ErrUnknownPolicy = errors.New("cryptoadapter: unknown security policy")

	// ErrNoCertificate is returned by operations that need a peer
	// certificate when none has been supplied.
	ErrNoCertificate = errors.New("cryptoadapter: no certificate")

	// ErrNotRSAKey is returned when a certificate's public key is not RSA;
	// every policy this adapter supports requires one.
	ErrNotRSAKey = errors.New("cryptoadapter: certificate public key is not RSA")

	// ErrCiphertextTooShort names an encrypted user-token payload shorter
	// than one RSA block. No function in this module returns it.
	ErrCiphertextTooShort = errors.New("cryptoadapter: ciphertext shorter than one RSA block")

	// ErrPlaintextTooShort names a decrypted user-token payload shorter
	// than the minimum length||password||nonce envelope. No function in
	// this module returns it; usertoken.DecryptPassword reports this case
	// as usertoken.ErrEncodingInvalid.
	ErrPlaintextTooShort = errors.New("cryptoadapter: decrypted payload shorter than length prefix")

	// ErrPasswordLengthMismatch names a decoded length prefix that doesn't
	// leave room for len(serverNonce) trailing bytes. No function in this
	// module returns it; usertoken.DecryptPassword reports this case as
	// usertoken.ErrEncodingInvalid.
	ErrPasswordLengthMismatch = errors.New("cryptoadapter: decoded password length inconsistent with server nonce")

	// ErrSignatureInvalid is returned when asymmetric signature
	// verification fails.
	ErrSignatureInvalid = errors.New("cryptoadapter: signature verification failed")

	// ErrCertificateUntrusted is returned by CertificateValidate when a
	// certificate chains to no configured root and matches no pinned
	// thumbprint.
	ErrCertificateUntrusted = errors.New("cryptoadapter: certificate untrusted")
)
