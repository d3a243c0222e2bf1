package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// Function-field fakes keep each test's behavior next to its assertions.

type fakeSessionManager struct {
	RegisterFunc       func(ctx context.Context, p auth.RegisterParams) (models.User, error)
	LoginFunc          func(ctx context.Context, usernameOrEmail, password string) (models.User, models.SessionTokens, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	LogoutFunc         func(ctx context.Context, userID string) error
	ChangePasswordFunc func(ctx context.Context, userID, oldPassword, newPassword string) error
	AuthenticateFunc   func(ctx context.Context, accessToken string) (models.User, error)
}

func (f fakeSessionManager) Register(ctx context.Context, p auth.RegisterParams) (models.User, error) {
	return f.RegisterFunc(ctx, p)
}

func (f fakeSessionManager) Login(ctx context.Context, usernameOrEmail, password string) (models.User, models.SessionTokens, error) {
	return f.LoginFunc(ctx, usernameOrEmail, password)
}

func (f fakeSessionManager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	return f.RefreshFunc(ctx, refreshToken)
}

func (f fakeSessionManager) Logout(ctx context.Context, userID string) error {
	return f.LogoutFunc(ctx, userID)
}

func (f fakeSessionManager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return f.ChangePasswordFunc(ctx, userID, oldPassword, newPassword)
}

func (f fakeSessionManager) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	return f.AuthenticateFunc(ctx, accessToken)
}

type fakeUserStore struct {
	FindByIDFunc           func(ctx context.Context, id string) (models.User, error)
	UpdateDetailsFunc      func(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatarFunc       func(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImageFunc   func(ctx context.Context, userID, coverImageURL string) (models.User, error)
	AppendWatchHistoryFunc func(ctx context.Context, userID, videoID string) error
}

func (f fakeUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	return f.FindByIDFunc(ctx, id)
}

func (f fakeUserStore) UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	return f.UpdateDetailsFunc(ctx, userID, fullName, email)
}

func (f fakeUserStore) UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error) {
	return f.UpdateAvatarFunc(ctx, userID, avatarURL)
}

func (f fakeUserStore) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error) {
	return f.UpdateCoverImageFunc(ctx, userID, coverImageURL)
}

func (f fakeUserStore) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	return f.AppendWatchHistoryFunc(ctx, userID, videoID)
}

type fakeVideoStore struct {
	CreateFunc               func(ctx context.Context, video models.Video) error
	FindByIDFunc             func(ctx context.Context, id string) (models.Video, error)
	IncrementViewsFunc       func(ctx context.Context, id string) error
	UpdateIfOwnerFunc        func(ctx context.Context, id, ownerID, title, description, thumbnailURL string) (models.Video, error)
	DeleteIfOwnerFunc        func(ctx context.Context, id, ownerID string) error
	TogglePublishIfOwnerFunc func(ctx context.Context, id, ownerID string) (models.Video, error)
}

func (f fakeVideoStore) Create(ctx context.Context, video models.Video) error {
	return f.CreateFunc(ctx, video)
}

func (f fakeVideoStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	return f.FindByIDFunc(ctx, id)
}

func (f fakeVideoStore) IncrementViews(ctx context.Context, id string) error {
	return f.IncrementViewsFunc(ctx, id)
}

func (f fakeVideoStore) UpdateIfOwner(ctx context.Context, id, ownerID, title, description, thumbnailURL string) (models.Video, error) {
	return f.UpdateIfOwnerFunc(ctx, id, ownerID, title, description, thumbnailURL)
}

func (f fakeVideoStore) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	return f.DeleteIfOwnerFunc(ctx, id, ownerID)
}

func (f fakeVideoStore) TogglePublishIfOwner(ctx context.Context, id, ownerID string) (models.Video, error) {
	return f.TogglePublishIfOwnerFunc(ctx, id, ownerID)
}

type fakeLikeStore struct {
	ToggleFunc         func(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	CountForTargetFunc func(ctx context.Context, target models.LikeTarget) (int64, error)
}

func (f fakeLikeStore) Toggle(ctx context.Context, actorID string, target models.LikeTarget) (bool, error) {
	return f.ToggleFunc(ctx, actorID, target)
}

func (f fakeLikeStore) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	return f.CountForTargetFunc(ctx, target)
}

type fakeViewStore struct {
	ChannelProfileFunc func(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStatsFunc   func(ctx context.Context, ownerID string) (models.ChannelStats, error)
	WatchHistoryFunc   func(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	LikedVideosFunc    func(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	ListVideosFunc     func(ctx context.Context, params repositories.ListVideosParams) ([]models.VideoWithOwner, error)
}

func (f fakeViewStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	return f.ChannelProfileFunc(ctx, username, viewerID)
}

func (f fakeViewStore) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	return f.ChannelStatsFunc(ctx, ownerID)
}

func (f fakeViewStore) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	return f.WatchHistoryFunc(ctx, userID)
}

func (f fakeViewStore) LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	return f.LikedVideosFunc(ctx, userID)
}

func (f fakeViewStore) ListVideos(ctx context.Context, params repositories.ListVideosParams) ([]models.VideoWithOwner, error) {
	return f.ListVideosFunc(ctx, params)
}

type fakeSubscriptionStore struct {
	ToggleFunc                 func(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribersFunc        func(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListSubscribedChannelsFunc func(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

func (f fakeSubscriptionStore) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return f.ToggleFunc(ctx, subscriberID, channelID)
}

func (f fakeSubscriptionStore) ListSubscribers(ctx context.Context, channelID string) ([]models.Subscription, error) {
	return f.ListSubscribersFunc(ctx, channelID)
}

func (f fakeSubscriptionStore) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	return f.ListSubscribedChannelsFunc(ctx, subscriberID)
}

// fakeMediaStore records uploads and hands back deterministic URLs.
type fakeMediaStore struct {
	uploads []string
	err     error
}

func (f *fakeMediaStore) Store(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, folder+"/"+filename)
	return fmt.Sprintf("https://cdn.test/%s/%s", folder, filename), nil
}
