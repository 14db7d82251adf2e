package usertoken

import "errors"

var (
	// ErrUnknownKind is returned when a request carries a user-token kind
	// not among the four recognized variants.
	ErrUnknownKind = errors.New("usertoken: unknown token kind")

	// ErrPolicyMismatch is returned when a token's PolicyId names no
	// configured user-token policy compatible with the channel's security
	// policy and mode.
	ErrPolicyMismatch = errors.New("usertoken: policy id incompatible with channel security")

	// ErrForbiddenPlaintextPassword is returned when a username+password
	// token is sent under a None user-security-policy on a channel that
	// is not in SignAndEncrypt mode.
	ErrForbiddenPlaintextPassword = errors.New("usertoken: plaintext password requires SignAndEncrypt channel")

	// ErrNonceMismatch is returned when the nonce embedded in a decrypted
	// password payload does not match the session's current server nonce.
	ErrNonceMismatch = errors.New("usertoken: embedded nonce does not match server nonce")

	// ErrEncodingInvalid is returned when a decrypted password payload's
	// length prefix is inconsistent with the remaining bytes.
	ErrEncodingInvalid = errors.New("usertoken: password payload encoding invalid")

	// ErrSignatureAlgorithmMismatch is returned when an X509 token's
	// signature algorithm URI does not match the channel policy's
	// asymmetric-sign URI.
	ErrSignatureAlgorithmMismatch = errors.New("usertoken: signature algorithm does not match channel policy")

	// ErrCertificateMissing is returned when an X509 token carries no
	// certificate bytes.
	ErrCertificateMissing = errors.New("usertoken: x509 token missing certificate")

	// ErrIdentityTokenInvalid maps ValidationStatus.InvalidToken.
	ErrIdentityTokenInvalid = errors.New("usertoken: identity token invalid")
	// ErrIdentityTokenRejected maps ValidationStatus.RejectedToken.
	ErrIdentityTokenRejected = errors.New("usertoken: identity token rejected")
	// ErrUserAccessDenied maps ValidationStatus.AccessDenied.
	ErrUserAccessDenied = errors.New("usertoken: user access denied")
	// ErrUserSignatureInvalid maps ValidationStatus.SignatureInvalid.
	ErrUserSignatureInvalid = errors.New("usertoken: user signature invalid")
)
