package appauth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an app token stays valid after it is issued.
const TokenLifetime = 600 * time.Second

var segmentReplacer = strings.NewReplacer("+", "-", "/", "_", `"`, "")

// EncodeSegment encodes b as a token segment: standard base64 with padding,
// then '+' and '/' swapped for '-' and '_', and any '"' dropped.
func EncodeSegment(b []byte) string {
	return segmentReplacer.Replace(base64.StdEncoding.EncodeToString(b))
}

type Header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

var tokenHeader = Header{Algorithm: "RS256", Type: "JWT"}

var _ jwt.Claims = (*Claims)(nil)

// Claims is the payload of an app token.
type Claims struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
}

func newClaims(appID string, now time.Time, timeDifference int64) Claims {
	iat := now.Unix() + timeDifference
	return Claims{
		IssuedAt:  iat,
		ExpiresAt: iat + int64(TokenLifetime/time.Second),
		Issuer:    appID,
	}
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c Claims) GetIssuer() (string, error) { return c.Issuer, nil }

func (c Claims) GetSubject() (string, error) { return "", nil }

func (c Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

type unsignedToken struct {
	header  string
	payload string
}

func (u unsignedToken) signingInput() []byte {
	return []byte(u.header + "." + u.payload)
}

func (u unsignedToken) withSignature(signature []byte) string {
	return u.header + "." + u.payload + "." + EncodeSegment(signature)
}

func buildUnsignedToken(claims Claims) (unsignedToken, error) {
	headerJSON, err := marshalJSON(tokenHeader)
	if err != nil {
		return unsignedToken{}, fmt.Errorf("failed to marshal header: %w", err)
	}
	payloadJSON, err := marshalJSON(claims)
	if err != nil {
		return unsignedToken{}, fmt.Errorf("failed to marshal claims: %w", err)
	}
	return unsignedToken{
		header:  EncodeSegment(headerJSON),
		payload: EncodeSegment(payloadJSON),
	}, nil
}

// marshalJSON is json.Marshal without HTML escaping, so issuers containing
// '<', '>' or '&' are encoded verbatim.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
