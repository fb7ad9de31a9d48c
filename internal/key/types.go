package key

import (
	"context"
	"time"
)

// ProviderAWSKMS is the only supported key reference tag.
const ProviderAWSKMS = "awskms"

// Reference points at a private key held by a remote key-management service.
type Reference struct {
	Provider string `json:"-"`
	Region   string `json:"region"`
	KeyID    string `json:"keyId"`
}

// Signer is the remote signing oracle. Implementations sign message as-is
// (RSASSA-PKCS1-v1_5 with SHA-256) and return the raw signature bytes.
type Signer interface {
	Sign(ctx context.Context, message []byte, keyID, region string) ([]byte, error)
}

// PublicKeyFetcher returns the DER encoded public half of a remote key.
type PublicKeyFetcher interface {
	PublicKey(ctx context.Context, keyID, region string) ([]byte, error)
}

type SignedToken struct {
	KeyID     string
	Header    string
	Payload   string
	Signature string
}

type PublicKey struct {
	KeyID string
	Key   []byte
}

type KeyManager interface {
	Sign(ctx context.Context, encodedClaims string) (*SignedToken, error)
	PublicKeys(ctx context.Context) ([]*PublicKey, error)
	Expiration() time.Duration
	LastRotatedAt() time.Time
}
