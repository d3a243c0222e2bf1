package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists and their video
// membership. Membership mutations are ownership-gated within the same
// statement; adding an already-present video is a no-op.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
	AddVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
	RemoveVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
}
