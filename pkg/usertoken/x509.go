package usertoken

import (
	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
)

// VerifyX509 parses t's certificate, checks its SignatureAlgorithm URI
// against the channel policy's sign algorithm, verifies the token's
// signature over serverCertificate||serverNonce, and runs the adapter's
// certificate trust check. It returns nil on success or the first failing
// error.
func VerifyX509(pr *cryptoadapter.Provider, trust cryptoadapter.TrustList, t Token, serverCertificate, serverNonce []byte) error {
	if len(t.Certificate) == 0 {
		return ErrCertificateMissing
	}
	if t.SignatureAlgorithm != pr.SignAlgorithmURI() {
		return ErrSignatureAlgorithmMismatch
	}

	cert, err := cryptoadapter.CertificateFromDER(t.Certificate)
	if err != nil {
		return err
	}
	pub, err := cryptoadapter.PublicKeyFromCertificate(cert)
	if err != nil {
		return err
	}

	plaintext := append(append([]byte{}, serverCertificate...), serverNonce...)
	if err := pr.AsymmetricVerify(plaintext, t.Signature, pub); err != nil {
		return err
	}

	return cryptoadapter.CertificateValidate(trust, cert)
}
