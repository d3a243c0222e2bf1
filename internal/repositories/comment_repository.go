package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, page, limit int) ([]models.Comment, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
}
