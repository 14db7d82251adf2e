package usertoken

import (
	"crypto/rsa"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
)

// AuthenticationManager validates a recognized identity token. Anonymous
// tokens still go through Validate; only PolicyId re-checking is skipped
// for them.
type AuthenticationManager interface {
	Validate(t Token) ValidationStatus
}

// ValidationStatusToError maps a ValidationStatus to the wire-facing
// status kind, mirroring the {Ok, InvalidToken, RejectedToken,
// AccessDenied, SignatureInvalid} → {ok, bad_identity_token_invalid,
// bad_identity_token_rejected, bad_user_access_denied,
// bad_user_signature_invalid} table.
func ValidationStatusToError(s ValidationStatus) error {
	switch s {
	case StatusOk:
		return nil
	case StatusInvalidToken:
		return ErrIdentityTokenInvalid
	case StatusRejectedToken:
		return ErrIdentityTokenRejected
	case StatusAccessDenied:
		return ErrUserAccessDenied
	case StatusSignatureInvalid:
		return ErrUserSignatureInvalid
	default:
		return ErrIdentityTokenInvalid
	}
}

// ProcessActivationInput bundles everything ProcessActivation needs to run
// the four-step identity-token pipeline for one ActivateSession.
type ProcessActivationInput struct {
	Raw               Token
	Policies          []Policy
	ServerCertificate []byte
	ServerNonce       []byte
	ServerPrivateKey  *rsa.PrivateKey
	Trust             cryptoadapter.TrustList
	ChannelMode       ChannelSecurityMode
	ChannelPolicy     cryptoadapter.SecurityPolicy
	Auth              AuthenticationManager
}

// ProcessActivation runs shallow-copy, decrypt/verify, and authentication
// manager validation for one inbound ActivateSession token, per §4.4
// steps 1-4. It returns the session-owned token (caller must Clear it when
// the session is done with it) or the first failing error.
func ProcessActivation(in ProcessActivationInput) (Token, error) {
	t := in.Raw.Shallow() // step 1

	if t.Kind == KindAnonymous {
		status := in.Auth.Validate(t)
		return t, ValidationStatusToError(status)
	}

	policy, err := SelectPolicy(in.Policies, t)
	if err != nil {
		t.Clear()
		return Token{}, err
	}

	switch t.Kind {
	case KindUserNamePassword:
		if err := CheckPlaintextPasswordAllowed(t, policy, in.ChannelMode); err != nil {
			t.Clear()
			return Token{}, err
		}
		if t.PasswordAlgorithm != "" {
			pr, err := cryptoadapter.NewProvider(in.resolvePolicy(policy))
			if err != nil {
				t.Clear()
				return Token{}, err
			}
			plain, err := DecryptPassword(pr, t.Password, in.ServerNonce, in.ServerPrivateKey)
			if err != nil {
				t.Clear()
				return Token{}, err
			}
			t.Password = plain
		}
	case KindX509Certificate:
		pr, err := cryptoadapter.NewProvider(in.resolvePolicy(policy))
		if err != nil {
			t.Clear()
			return Token{}, err
		}
		if err := VerifyX509(pr, in.Trust, t, in.ServerCertificate, in.ServerNonce); err != nil {
			t.Clear()
			return Token{}, err
		}
	case KindIssuedToken:
		// Opaque token: no adapter-level verification, validated entirely
		// by the Authentication Manager.
	default:
		t.Clear()
		return Token{}, ErrUnknownKind
	}

	status := in.Auth.Validate(t)
	if err := ValidationStatusToError(status); err != nil {
		t.Clear()
		return Token{}, err
	}
	return t, nil
}

// resolvePolicy resolves policy's security policy URI, falling back to the
// channel's negotiated policy when the policy inherits it (empty URI).
func (in ProcessActivationInput) resolvePolicy(policy Policy) cryptoadapter.SecurityPolicy {
	if policy.SecurityPolicy == "" {
		return in.ChannelPolicy
	}
	p, err := cryptoadapter.PolicyFromURI(policy.SecurityPolicy)
	if err != nil {
		return in.ChannelPolicy
	}
	return p
}
