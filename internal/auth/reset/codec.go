// Package reset generates password reset secrets and their lookup hashes.
//
// The secret is mailed to the user and only its sha256 digest is stored. The
// digest is recomputed from the secret in the reset URL to find the user.
package reset

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Reset token configuration
const (
	SecretBytes   = 20 // 40 hex chars
	DefaultExpiry = 30 * time.Minute
)

// Codec creates reset secrets valid for a fixed window
type Codec struct {
	expiry time.Duration
	now    func() time.Time
}

// NewCodec creates a codec; a non-positive expiry falls back to DefaultExpiry
func NewCodec(expiry time.Duration) *Codec {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Codec{expiry: expiry, now: time.Now}
}

// Generate returns a new random secret, its lookup hash and its expiry
func (c *Codec) Generate() (secret, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, SecretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate reset token: %w", err)
	}

	secret = hex.EncodeToString(buf)
	return secret, c.Resolve(secret), c.now().Add(c.expiry), nil
}

// Resolve recomputes the lookup hash of a secret taken from a reset URL
func (c *Codec) Resolve(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Expiry returns the validity window of generated secrets
func (c *Codec) Expiry() time.Duration {
	return c.expiry
}
