package key

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
)

// DecodeRSAPublicKey parses a DER encoded SubjectPublicKeyInfo and requires an
// RSA key, since tokens are signed with RS256.
func DecodeRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	if len(der) == 0 {
		return nil, errors.New("empty public key")
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", pub)
	}
	return rsaKey, nil
}
