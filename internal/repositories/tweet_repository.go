package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Tweet, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
}
