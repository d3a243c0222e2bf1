package handlers

import (
	"context"
	"io"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// SessionManager owns the credential lifecycle: registration, login, token
// refresh, revocation and access-token verification.
type SessionManager interface {
	Register(ctx context.Context, p auth.RegisterParams) (models.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (models.User, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}

// UserStore captures the account operations used by the user handlers.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	UpdateIfOwner(ctx context.Context, id, ownerID, title, description, thumbnailURL string) (models.Video, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
	TogglePublishIfOwner(ctx context.Context, id, ownerID string) (models.Video, error)
}

// CommentStore captures persistence for comments on videos.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, page, limit int) ([]models.Comment, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Tweet, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
}

// LikeStore toggles and counts likes across the three target kinds.
type LikeStore interface {
	Toggle(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
}

// SubscriptionStore toggles and lists channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

// PlaylistStore captures persistence for playlists and their membership.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateIfOwner(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error)
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
	AddVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
	RemoveVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
}

// ViewStore exposes the derived read views.
type ViewStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	ListVideos(ctx context.Context, params repositories.ListVideosParams) ([]models.VideoWithOwner, error)
}

// MediaStore persists uploaded media and returns its public URL.
type MediaStore interface {
	Store(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}
