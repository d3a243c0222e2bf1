package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts. It is
// a superset of auth.CredentialStore.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, old, replacement string) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
	// AppendWatchHistory moves videoID to the tail of the user's watch
	// history, deduplicating any earlier occurrence.
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
