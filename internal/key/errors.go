package key

import "fmt"

// UnsupportedKeyProviderError is returned when a key reference does not name
// a supported key-management provider or cannot be decoded.
type UnsupportedKeyProviderError struct {
	Reason string
	Err    error
}

func (e *UnsupportedKeyProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported key provider: %s: %v", e.Reason, e.Err)
	}
	return "unsupported key provider: " + e.Reason
}

func (e *UnsupportedKeyProviderError) Unwrap() error { return e.Err }

// SigningServiceError is returned when the remote signing oracle fails.
type SigningServiceError struct {
	KeyID  string
	Region string
	Err    error
}

func (e *SigningServiceError) Error() string {
	return fmt.Sprintf("failed to sign with key %q in region %q: %v", e.KeyID, e.Region, e.Err)
}

func (e *SigningServiceError) Unwrap() error { return e.Err }
