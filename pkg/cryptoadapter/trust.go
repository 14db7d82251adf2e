package cryptoadapter

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"time"
)

// TrustList is the session layer's view of a PKI: the certificate
// authorities and individually-trusted peer certificates an endpoint
// accepts. It mirrors the pki handle threaded through certificate_validate.
type TrustList struct {
	Roots         *x509.CertPool
	Intermediates *x509.CertPool
	// TrustedThumbprints, if non-empty, additionally allow a certificate
	// that chains to no root but matches a pinned SHA-1 thumbprint —
	// OPC UA's common self-signed-application-instance-certificate case.
	TrustedThumbprints map[string]struct{}
}

// CertificateValidate checks cert against pki: chain-of-trust verification
// when roots are configured, falling back to exact thumbprint trust for
// self-signed application certificates. A nil or empty certificate
// returns ErrNoCertificate; any other validation failure returns
// ErrCertificateUntrusted. It never panics on a malformed or empty
// certificate.
func CertificateValidate(pki TrustList, cert *x509.Certificate) error {
	if cert == nil || len(cert.Raw) == 0 {
		return ErrNoCertificate
	}

	if _, ok := pki.TrustedThumbprints[thumbprint(cert)]; ok {
		return nil
	}

	if pki.Roots == nil {
		return ErrCertificateUntrusted
	}

	opts := x509.VerifyOptions{
		Roots:         pki.Roots,
		Intermediates: pki.Intermediates,
		CurrentTime:   time.Now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := cert.Verify(opts); err != nil {
		return ErrCertificateUntrusted
	}
	return nil
}

// thumbprint is the hex SHA-1 digest of the certificate's DER encoding, the
// form OPC UA application instance certificates are commonly pinned by.
func thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return hex.EncodeToString(sum[:])
}
