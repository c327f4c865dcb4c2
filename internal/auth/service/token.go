package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any session token that cannot be trusted
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of a session token
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenGenerator handles session token generation and validation.
// The secret and expiry are fixed at construction.
type TokenGenerator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, expiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns the validity window of issued tokens
func (tg *TokenGenerator) Expiry() time.Duration {
	return tg.expiry
}

// GenerateToken signs a token carrying userID that expires after the configured window
func (tg *TokenGenerator) GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := tg.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.expiry)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the user ID.
// Every failure is reported as ErrInvalidToken.
func (tg *TokenGenerator) ValidateToken(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tg.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tg.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
