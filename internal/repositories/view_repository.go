package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// ListVideosParams filters and pages the video listing. OwnerID is
// required; Query is an optional case-insensitive substring match on the
// title. SortBy/SortDir default to newest-first.
type ListVideosParams struct {
	OwnerID string
	Query   string
	SortBy  string
	SortDir string
	Page    int
	Limit   int
}

// ViewRepository composes read-only multi-entity joins into derived views.
// Nothing here ever mutates a source table.
type ViewRepository interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	ListVideos(ctx context.Context, params ListVideosParams) ([]models.VideoWithOwner, error)
}
