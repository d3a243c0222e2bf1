package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// SubscriptionRepository exposes the subscribe toggle and follower
// listings. Toggle has the same contract as LikeRepository.Toggle.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}
