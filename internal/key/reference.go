package key

import (
	"context"
	"encoding/json"
	"strings"
)

// ParseReference decodes a key reference of the form
// `awskms:{"region":"us-east-1","keyId":"..."}`.
func ParseReference(s string) (Reference, error) {
	payload, ok := strings.CutPrefix(s, ProviderAWSKMS+":")
	if !ok {
		return Reference{}, &UnsupportedKeyProviderError{Reason: "Not implemented"}
	}

	ref := Reference{Provider: ProviderAWSKMS}
	if err := json.Unmarshal([]byte(payload), &ref); err != nil {
		return Reference{}, &UnsupportedKeyProviderError{Reason: "malformed " + ProviderAWSKMS + " key reference", Err: err}
	}
	return ref, nil
}

// SignRaw signs message with the key named by keyReference. An unsupported
// reference fails before the oracle is called; oracle failures are returned
// as *SigningServiceError.
func SignRaw(ctx context.Context, signer Signer, keyReference string, message []byte) ([]byte, error) {
	ref, err := ParseReference(keyReference)
	if err != nil {
		return nil, err
	}

	return ref.Sign(ctx, signer, message)
}

// Sign asks signer for a signature over message with the referenced key.
func (r Reference) Sign(ctx context.Context, signer Signer, message []byte) ([]byte, error) {
	signature, err := signer.Sign(ctx, message, r.KeyID, r.Region)
	if err != nil {
		return nil, &SigningServiceError{KeyID: r.KeyID, Region: r.Region, Err: err}
	}
	return signature, nil
}
