package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// LikeRepository exposes the idempotent like toggle. Toggle reports the
// resulting state: true when the like now exists, false when it was
// removed. Duplicate creation races are absorbed by the storage-level
// uniqueness constraint.
type LikeRepository interface {
	Toggle(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
}
