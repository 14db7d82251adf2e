package usertoken

// Token is the tagged variant over the four user-identity token kinds.
// Only the fields relevant to Kind are meaningful; callers must not read a
// field that doesn't belong to the current Kind.
type Token struct {
	Kind     Kind
	PolicyID string

	// UserNamePassword fields.
	Username           string
	Password           []byte
	PasswordAlgorithm  string // encryption algorithm URI, empty if unencrypted

	// X509Certificate fields.
	Certificate []byte // DER-encoded
	Signature   []byte
	SignatureAlgorithm string

	// IssuedToken fields.
	IssuedData      []byte
	IssuedAlgorithm string
}

// Shallow copies the wire-owned byte slices of t into a freshly allocated
// Token, so the session layer never retains a reference into a decoded
// request buffer the transport frees when handling returns. Scalar and
// string fields are value-copied by Go's assignment semantics already;
// Shallow only needs to clone the byte fields.
func (t Token) Shallow() Token {
	out := t
	out.Password = cloneBytes(t.Password)
	out.Certificate = cloneBytes(t.Certificate)
	out.Signature = cloneBytes(t.Signature)
	out.IssuedData = cloneBytes(t.IssuedData)
	return out
}

// Deep is Shallow plus zeroing: it is used when moving a token across a
// trust boundary where the source buffers must not retain readable
// copies of secret material (e.g. after the password has been decrypted
// into Token.Password, the ciphertext buffer it came from is zeroed).
func (t Token) Deep(zeroSource func()) Token {
	out := t.Shallow()
	if zeroSource != nil {
		zeroSource()
	}
	return out
}

// Clear zeroes every secret-bearing byte slice the token owns. Callers must
// call this once a token is no longer needed — invariant 7 requires every
// owned cryptographic buffer to be cleared before release.
func (t *Token) Clear() {
	zero(t.Password)
	zero(t.Signature)
	zero(t.IssuedData)
	t.Password = nil
	t.Signature = nil
	t.IssuedData = nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ChannelSecurityMode mirrors the Secure Channel's negotiated mode, which
// the None-password-policy forbidden-case check needs.
type ChannelSecurityMode int

const (
	ModeNone ChannelSecurityMode = iota
	ModeSign
	ModeSignAndEncrypt
)

// Policy is one server-advertised user-token policy: a PolicyId tied to an
// accepted token Kind and the security policy URI it requires (empty means
// "inherit the channel's security policy").
type Policy struct {
	PolicyID       string
	Kind           Kind
	SecurityPolicy string // security policy URI, "" = inherit channel policy
}

// SelectPolicy returns the first policy in order whose PolicyID and Kind
// both match the token, per the "first in endpoint order that matches"
// tie-break rule. ErrPolicyMismatch if none match.
func SelectPolicy(policies []Policy, t Token) (Policy, error) {
	for _, p := range policies {
		if p.PolicyID == t.PolicyID && p.Kind == t.Kind {
			return p, nil
		}
	}
	return Policy{}, ErrPolicyMismatch
}

// CheckPlaintextPasswordAllowed enforces: a username+password token may
// only be sent unencrypted (PasswordAlgorithm == "") when the channel is in
// SignAndEncrypt mode, or when the chosen policy's security policy is not
// None.
func CheckPlaintextPasswordAllowed(t Token, policy Policy, channelMode ChannelSecurityMode) error {
	if t.Kind != KindUserNamePassword || t.PasswordAlgorithm != "" {
		return nil
	}
	if policy.SecurityPolicy != "" && policy.SecurityPolicy != "http://opcfoundation.org/UA/SecurityPolicy#None" {
		return nil
	}
	if channelMode == ModeSignAndEncrypt {
		return nil
	}
	return ErrForbiddenPlaintextPassword
}
