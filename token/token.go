// Package token inspects the catalog access token at startup.
package token

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-jose/go-jose"
)

// ExpiryWarning is how far ahead of expiry the relay starts warning.
const ExpiryWarning = 7 * 24 * time.Hour

type Status int

const (
	StatusOpaque   Status = iota // Not a JWS, nothing to inspect.
	StatusValid                  // No expiry, or expiry beyond the warning window.
	StatusExpiring               // Expires within ExpiryWarning.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpiring:
		return "expiring"
	case StatusExpired:
		return "expired"
	default:
		return "opaque"
	}
}

// Claims is the part of a catalog access token the relay looks at.
type Claims struct {
	Subject   string `json:"sub"`
	ExpiresAt *int64 `json:"exp"`
}

// Inspect decodes the token payload without verifying its signature and
// classifies its expiry relative to now. Tokens that are not a JWS are
// reported as StatusOpaque with no error.
func Inspect(raw string, now time.Time) (Status, Claims, error) {
	var claims Claims

	signed, err := jose.ParseSigned(raw)
	if err != nil {
		return StatusOpaque, claims, nil
	}

	if err := json.Unmarshal(signed.UnsafePayloadWithoutVerification(), &claims); err != nil {
		return StatusOpaque, claims, fmt.Errorf("failed to unmarshal token claims: %w", err)
	}

	if claims.ExpiresAt == nil || *claims.ExpiresAt == 0 {
		return StatusValid, claims, nil
	}

	expiresAt := time.Unix(*claims.ExpiresAt, 0).UTC()
	switch {
	case !now.Before(expiresAt):
		return StatusExpired, claims, nil
	case expiresAt.Sub(now) <= ExpiryWarning:
		return StatusExpiring, claims, nil
	default:
		return StatusValid, claims, nil
	}
}

// Check inspects the configured token and logs what it finds. It never fails
// startup; the catalog is the authority on whether the token is accepted.
func Check(logger *slog.Logger, raw string) Status {
	if raw == "" {
		logger.Debug("No catalog token configured")
		return StatusOpaque
	}

	status, claims, err := Inspect(raw, time.Now())
	if err != nil {
		logger.Warn("Failed to inspect catalog token", "err", err)
		return status
	}

	switch status {
	case StatusExpired:
		logger.Warn("Catalog token has expired", "subject", claims.Subject, "expiresAt", time.Unix(*claims.ExpiresAt, 0).UTC())
	case StatusExpiring:
		logger.Warn("Catalog token expires soon", "subject", claims.Subject, "expiresAt", time.Unix(*claims.ExpiresAt, 0).UTC())
	case StatusValid:
		logger.Debug("Catalog token inspected", "subject", claims.Subject)
	}
	return status
}
