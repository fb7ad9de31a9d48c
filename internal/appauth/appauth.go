// Package appauth issues short-lived application tokens signed by a key that
// never leaves a remote key-management service.
package appauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/zarvd/kms-app-signer/internal/key"
)

// TokenType is the Authentication.Type of every issued token.
const TokenType = "app"

// Identity describes the application a token is issued for.
type Identity struct {
	AppID string
	// PrivateKey is a key reference, e.g. `awskms:{"region":"us-east-1","keyId":"..."}`.
	PrivateKey string
	// TimeDifference shifts the token clock by this many seconds; zero means no shift.
	TimeDifference int64
}

type Authentication struct {
	Type      string `json:"type"`
	Token     string `json:"token"`
	AppID     string `json:"appId"`
	ExpiresAt string `json:"expiresAt"`
}

// expiresAtLayout matches JavaScript's Date.prototype.toISOString.
const expiresAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Option func(*Issuer)

// WithClock overrides the wall clock used for iat.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

type Issuer struct {
	logger *slog.Logger
	signer key.Signer
	now    func() time.Time
}

func NewIssuer(logger *slog.Logger, signer key.Signer, opts ...Option) *Issuer {
	i := &Issuer{
		logger: logger,
		signer: signer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue mints an app token for id. It makes exactly one call to the remote
// signer and does not retry.
func (i *Issuer) Issue(ctx context.Context, id Identity) (*Authentication, error) {
	auth, err := i.issue(ctx, id)
	if err != nil {
		err = mapIssueError(id.PrivateKey, err)
		i.logger.Error("failed to issue app token", slog.String("app-id", id.AppID), slog.Any("error", err))
		return nil, err
	}
	return auth, nil
}

func (i *Issuer) issue(ctx context.Context, id Identity) (*Authentication, error) {
	if id.AppID == "" {
		return nil, errMissingAppID
	}

	claims := newClaims(id.AppID, i.now(), id.TimeDifference)
	unsigned, err := buildUnsignedToken(claims)
	if err != nil {
		return nil, err
	}

	signature, err := key.SignRaw(ctx, i.signer, id.PrivateKey, unsigned.signingInput())
	if err != nil {
		return nil, err
	}

	i.logger.Info("issued app token",
		slog.String("app-id", id.AppID),
		slog.Int64("iat", claims.IssuedAt),
		slog.Int64("exp", claims.ExpiresAt),
	)

	return &Authentication{
		Type:      TokenType,
		Token:     unsigned.withSignature(signature),
		AppID:     id.AppID,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC().Format(expiresAtLayout),
	}, nil
}
