// Package webhook verifies inbound webhook authenticity.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw
// request body, keyed on the shared webhook secret.
const SignatureHeader = "X-Webhook-Signature"

// VerifySignature checks the webhook signature over the raw body.
// An empty secret disables verification so local development works
// before the secret is provisioned.
func VerifySignature(secret, signature string, rawBody []byte) error {
	if secret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", apperrors.ErrUnauthorized, SignatureHeader)
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed webhook signature", apperrors.ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return fmt.Errorf("%w: invalid webhook signature", apperrors.ErrUnauthorized)
	}
	return nil
}
