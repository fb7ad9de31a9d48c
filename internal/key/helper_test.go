package key

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/require"
)

type rsaSigner struct {
	privateKey *rsa.PrivateKey
	err        error

	calls   int
	keyID   string
	region  string
	message []byte
}

func newRSASigner(t *testing.T) *rsaSigner {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &rsaSigner{privateKey: privateKey}
}

func (s *rsaSigner) Sign(_ context.Context, message []byte, keyID, region string) ([]byte, error) {
	s.calls++
	s.keyID, s.region, s.message = keyID, region, message
	if s.err != nil {
		return nil, s.err
	}
	h := sha256.Sum256(message)
	return rsa.SignPKCS1v15(nil, s.privateKey, crypto.SHA256, h[:])
}

func (s *rsaSigner) PublicKey(context.Context, string, string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return x509.MarshalPKIXPublicKey(&s.privateKey.PublicKey)
}
