package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

// TokenIssuer mints and verifies the HS256 JWTs used as access and refresh
// credentials. Access tokens carry the identity claim plus username/email;
// refresh tokens carry only the identity and are signed with a separate
// secret.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the provided secrets and TTLs.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type accessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// MintAccess creates a short-lived access token for the user.
func (t *TokenIssuer) MintAccess(user models.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.accessTTL)

	claims := accessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// MintRefresh creates a refresh token carrying only the user id.
func (t *TokenIssuer) MintRefresh(userID string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.refreshTTL)

	// The jti claim keeps two tokens minted within the same second from
	// being byte-identical, which the rotation compare-and-swap relies on.
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expires, nil
}

// VerifyAccess validates an access token and returns the embedded user id.
// Every verification failure, whatever the underlying cause, is reported as
// ErrTokenInvalid with the cause preserved for diagnostics.
func (t *TokenIssuer) VerifyAccess(token string) (string, error) {
	return t.verify(token, t.accessSecret)
}

// VerifyRefresh validates a refresh token and returns the embedded user id.
func (t *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return t.verify(token, t.refreshSecret)
}

func (t *TokenIssuer) verify(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject claim", ErrTokenInvalid)
	}
	return claims.Subject, nil
}
