package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

var (
	// ErrValidation indicates a required field was blank or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid indicates a missing, malformed, expired, or otherwise
	// unverifiable token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrStaleRefreshToken indicates the presented refresh token no longer
	// matches the one stored for the user: it was superseded by a newer
	// login or refresh, or revoked by logout.
	ErrStaleRefreshToken = errors.New("refresh token is expired or already used")
)

const minPasswordLength = 8

// CredentialStore captures the persistence operations the session manager
// needs. The Postgres user repository implements it.
type CredentialStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error)
	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// An empty token clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken atomically replaces old with new, failing with
	// repositories.ErrNotFound when the stored token is not byte-equal to
	// old (or the user is gone).
	RotateRefreshToken(ctx context.Context, userID, old, replacement string) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// Manager owns the identity and session lifecycle: registration, password
// auth, access/refresh token issuance and rotation, and revocation. One
// refresh token is valid per user at a time; issuing a new session
// invalidates every previously issued one.
type Manager struct {
	store  CredentialStore
	tokens *TokenIssuer
}

// NewManager constructs a Manager over the provided credential store.
func NewManager(store CredentialStore, tokens *TokenIssuer) *Manager {
	if store == nil || tokens == nil {
		panic("auth: credential store and token issuer must not be nil")
	}
	return &Manager{store: store, tokens: tokens}
}

// RegisterParams carries the fields required to create an account. Avatar is
// required; cover image is optional.
type RegisterParams struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Register creates a new account, storing only the bcrypt hash of the
// password. It fails with repositories.ErrConflict when the username or
// email is already taken.
func (m *Manager) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)

	switch {
	case p.Username == "":
		return models.User{}, fmt.Errorf("%w: username is required", ErrValidation)
	case p.Email == "":
		return models.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	case p.FullName == "":
		return models.User{}, fmt.Errorf("%w: full name is required", ErrValidation)
	case len(p.Password) < minPasswordLength:
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	case p.AvatarURL == "":
		return models.User{}, fmt.Errorf("%w: avatar is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      p.Username,
		Email:         p.Email,
		FullName:      p.FullName,
		PasswordHash:  string(hash),
		AvatarURL:     p.AvatarURL,
		CoverImageURL: p.CoverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.store.Create(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login verifies the password for the account matching usernameOrEmail and
// issues a fresh token pair. The new refresh token overwrites the stored
// one, so any session issued earlier is invalidated.
func (m *Manager) Login(ctx context.Context, usernameOrEmail, password string) (models.User, models.SessionTokens, error) {
	usernameOrEmail = strings.ToLower(strings.TrimSpace(usernameOrEmail))
	if usernameOrEmail == "" || password == "" {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("%w: username or email and password are required", ErrValidation)
	}

	user, err := m.store.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.issue(user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	user.RefreshToken = tokens.RefreshToken
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// token in one atomic compare-and-swap. A token that does not verify, does
// not match a known user, or is not byte-equal to the stored one fails with
// ErrTokenInvalid or ErrStaleRefreshToken; both surface to callers as an
// authorization failure. Two concurrent refreshes with the same token race
// on the swap and at most one wins.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, fmt.Errorf("%w: refresh token is required", ErrTokenInvalid)
	}

	userID, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, fmt.Errorf("%w: unknown user", ErrTokenInvalid)
		}
		return models.SessionTokens{}, err
	}

	tokens, err := m.issue(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.RotateRefreshToken(ctx, user.ID, refreshToken, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrStaleRefreshToken
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return tokens, nil
}

// Logout revokes the user's session by clearing the stored refresh token.
// Every outstanding refresh token for the user becomes invalid.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword re-hashes and stores the new password after verifying the
// old one.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return m.store.UpdatePasswordHash(ctx, userID, string(hash))
}

// Authenticate validates an access token and resolves the user it belongs
// to. It is the precondition for every protected operation.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	if accessToken == "" {
		return models.User{}, fmt.Errorf("%w: access token is required", ErrTokenInvalid)
	}

	userID, err := m.tokens.VerifyAccess(accessToken)
	if err != nil {
		return models.User{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: unknown user", ErrTokenInvalid)
		}
		return models.User{}, err
	}
	return user, nil
}

func (m *Manager) issue(user models.User) (models.SessionTokens, error) {
	access, accessExpires, err := m.tokens.MintAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, refreshExpires, err := m.tokens.MintRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}
	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}
