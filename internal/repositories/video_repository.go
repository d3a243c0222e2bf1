package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// VideoRepository exposes data access for videos. Every mutation is gated
// on ownership inside a single atomic statement; a miss (absent row or
// non-owning caller) is ErrNotFound.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	UpdateIfOwner(ctx context.Context, id, ownerID, title, description, thumbnailURL string) (models.Video, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
	TogglePublishIfOwner(ctx context.Context, id, ownerID string) (models.Video, error)
}
