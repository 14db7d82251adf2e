package usertoken

import (
	"crypto/rsa"
	"encoding/binary"

	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
)

// EncryptPassword builds and encrypts the client-side password envelope:
// u32 little-endian length(password||serverNonce) || password ||
// serverNonce, RSA-OAEP encrypted under the server certificate's public
// key. The length prefix excludes itself, matching the wire format.
func EncryptPassword(pr *cryptoadapter.Provider, password, serverNonce []byte, serverPub *rsa.PublicKey) ([]byte, error) {
	plain := make([]byte, 4+len(password)+len(serverNonce))
	binary.LittleEndian.PutUint32(plain[0:4], uint32(len(password)+len(serverNonce)))
	copy(plain[4:4+len(password)], password)
	copy(plain[4+len(password):], serverNonce)
	defer zero(plain)

	return pr.AsymmetricEncrypt(plain, serverPub)
}

// DecryptPassword server-side decrypts ciphertext, verifies the embedded
// nonce equals serverNonce, and returns the recovered password. The
// decrypted scratch buffer is zeroed before return regardless of outcome.
func DecryptPassword(pr *cryptoadapter.Provider, ciphertext, serverNonce []byte, serverPriv *rsa.PrivateKey) ([]byte, error) {
	plain, err := pr.AsymmetricDecrypt(ciphertext, serverPriv)
	if err != nil {
		return nil, err
	}
	defer zero(plain)

	if len(plain) < 4 {
		return nil, ErrEncodingInvalid
	}
	total := int(binary.LittleEndian.Uint32(plain[0:4]))
	if total != len(plain)-4 || total < len(serverNonce) {
		return nil, ErrEncodingInvalid
	}
	pwLen := total - len(serverNonce)

	nonce := plain[4+pwLen:]
	if !constantTimeEqual(nonce, serverNonce) {
		return nil, ErrNonceMismatch
	}

	password := make([]byte, pwLen)
	copy(password, plain[4:4+pwLen])
	return password, nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
