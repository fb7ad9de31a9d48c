package key

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RemoteSigner is a Signer that can also hand out its public keys.
type RemoteSigner interface {
	Signer
	PublicKeyFetcher
}

var _ KeyManager = (*kmsKeyManager)(nil)

type kmsKeyManager struct {
	logger *slog.Logger

	signer    RemoteSigner
	ref       Reference
	expiry    time.Duration
	createdAt time.Time
}

// NewKMSKeyManager serves the single remote key named by keyReference.
func NewKMSKeyManager(
	logger *slog.Logger,
	signer RemoteSigner,
	keyReference string,
	expiry time.Duration,
) (KeyManager, error) {
	ref, err := ParseReference(keyReference)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key reference: %w", err)
	}
	if ref.KeyID == "" {
		return nil, errors.New("key reference has no key id")
	}

	return &kmsKeyManager{
		logger:    logger.With(slog.String("key-id", ref.KeyID), slog.String("region", ref.Region)),
		signer:    signer,
		ref:       ref,
		expiry:    expiry,
		createdAt: time.Now(),
	}, nil
}

func (s *kmsKeyManager) Sign(ctx context.Context, encodedClaims string) (*SignedToken, error) {
	header := map[string]string{
		"alg": "RS256",
		"typ": "JWT",
		"kid": s.ref.KeyID,
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)

	signature, err := s.ref.Sign(ctx, s.signer, []byte(headerB64+"."+encodedClaims))
	if err != nil {
		return nil, err
	}

	return &SignedToken{
		KeyID:     s.ref.KeyID,
		Header:    headerB64,
		Payload:   encodedClaims,
		Signature: base64.RawURLEncoding.EncodeToString(signature),
	}, nil
}

func (s *kmsKeyManager) PublicKeys(ctx context.Context) ([]*PublicKey, error) {
	der, err := s.signer.PublicKey(ctx, s.ref.KeyID, s.ref.Region)
	if err != nil {
		s.logger.Error("failed to fetch public key", slog.Any("error", err))
		return nil, &SigningServiceError{KeyID: s.ref.KeyID, Region: s.ref.Region, Err: err}
	}
	if _, err := DecodeRSAPublicKey(der); err != nil {
		return nil, fmt.Errorf("key %q: %w", s.ref.KeyID, err)
	}
	return []*PublicKey{{KeyID: s.ref.KeyID, Key: der}}, nil
}

func (s *kmsKeyManager) Expiration() time.Duration {
	return s.expiry
}

// LastRotatedAt reports when the manager was created; KMS key versions are
// managed outside of this process.
func (s *kmsKeyManager) LastRotatedAt() time.Time {
	return s.createdAt
}
