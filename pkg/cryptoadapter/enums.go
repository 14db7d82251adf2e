// Package cryptoadapter wraps the security-policy-dependent cryptographic
// primitives the session layer needs (nonce/id generation, asymmetric
// sign/verify/encrypt/decrypt, certificate validation), keyed by a closed
// SecurityPolicy enum.
package cryptoadapter

import "fmt"

// SecurityPolicy identifies one of the OPC UA security policy URIs a Secure
// Channel can be opened with. The session layer never negotiates a policy
// itself; it receives the policy the channel was opened under and asks the
// Provider for that policy's parameters and operations.
type SecurityPolicy int

const (
	// PolicyNone carries no signing or encryption.
	PolicyNone SecurityPolicy = iota
	// PolicyBasic256 is RSA-OAEP/SHA1 encryption, RSA-PKCS1v15/SHA1 signing.
	PolicyBasic256
	// PolicyBasic256Sha256 is RSA-OAEP/SHA1 encryption, RSA-PKCS1v15/SHA256 signing.
	PolicyBasic256Sha256
	// PolicyAes128Sha256RsaOaep is RSA-OAEP/SHA1 encryption, RSA-PKCS1v15/SHA256 signing.
	PolicyAes128Sha256RsaOaep
	// PolicyAes256Sha256RsaPss is RSA-OAEP/SHA256 encryption, RSA-PSS/SHA256 signing.
	PolicyAes256Sha256RsaPss
)

// policyURIs maps each SecurityPolicy to its full OPC UA URI.
var policyURIs = map[SecurityPolicy]string{
	PolicyNone:                "http://opcfoundation.org/UA/SecurityPolicy#None",
	PolicyBasic256:            "http://opcfoundation.org/UA/SecurityPolicy#Basic256",
	PolicyBasic256Sha256:      "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256",
	PolicyAes128Sha256RsaOaep: "http://opcfoundation.org/UA/SecurityPolicy#Aes128_Sha256_RsaOaep",
	PolicyAes256Sha256RsaPss:  "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss",
}

var uriToPolicy = func() map[string]SecurityPolicy {
	m := make(map[string]SecurityPolicy, len(policyURIs))
	for p, u := range policyURIs {
		m[u] = p
	}
	return m
}()

// String returns the policy's URI, matching the session layer's
// sign_algorithm_uri / encryption_algorithm_uri vocabulary.
func (p SecurityPolicy) String() string {
	if u, ok := policyURIs[p]; ok {
		return u
	}
	return fmt.Sprintf("SecurityPolicy(%d)", int(p))
}

// IsValid reports whether p is one of the closed set of known policies.
func (p SecurityPolicy) IsValid() bool {
	_, ok := policyURIs[p]
	return ok
}

// PolicyFromURI resolves a policy URI to its SecurityPolicy, or
// ErrUnknownPolicy if the URI is not one of the policies this adapter knows.
func PolicyFromURI(uri string) (SecurityPolicy, error) {
	if p, ok := uriToPolicy[uri]; ok {
		return p, nil
	}
	return PolicyNone, ErrUnknownPolicy
}
