// Package usertoken implements the four OPC UA user-identity token
// variants ActivateSession carries: recognizing them, copying them across
// the trust boundary between a decoded request and session-owned storage,
// encrypting/decrypting the password variant, and verifying the
// certificate variant's signature.
package usertoken

import "fmt"

// Kind tags which of the four user-token variants a Token holds.
type Kind int

const (
	// KindAnonymous carries only a PolicyId.
	KindAnonymous Kind = iota
	// KindUserNamePassword carries a username, password and the
	// encryption algorithm URI used to protect the password in transit.
	KindUserNamePassword
	// KindX509Certificate carries a DER-encoded certificate and a
	// signature over server_certificate||server_nonce.
	KindX509Certificate
	// KindIssuedToken carries an opaque token (e.g. a SAML/JWT blob) and
	// its encryption algorithm URI.
	KindIssuedToken
)

// String names the variant.
func (k Kind) String() string {
	switch k {
	case KindAnonymous:
		return "Anonymous"
	case KindUserNamePassword:
		return "UserNamePassword"
	case KindX509Certificate:
		return "X509Certificate"
	case KindIssuedToken:
		return "IssuedToken"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsValid reports whether k is one of the four recognized variants.
func (k Kind) IsValid() bool {
	return k >= KindAnonymous && k <= KindIssuedToken
}

// ValidationStatus is the outcome of validating a token with the
// Authentication Manager.
type ValidationStatus int

const (
	// StatusOk is a successfully validated identity.
	StatusOk ValidationStatus = iota
	// StatusInvalidToken maps to BadIdentityTokenInvalid.
	StatusInvalidToken
	// StatusRejectedToken maps to BadIdentityTokenRejected.
	StatusRejectedToken
	// StatusAccessDenied maps to BadUserAccessDenied.
	StatusAccessDenied
	// StatusSignatureInvalid maps to BadUserSignatureInvalid.
	StatusSignatureInvalid
)
