package handlers

import (
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/repositories"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return
		}
		logging.FromContext(ctx).Error("channel lookup failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
		return
	}

	active, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		logging.FromContext(ctx).Error("toggle subscription failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
		return
	}

	message := "unsubscribed"
	if active {
		message = "subscribed"
	}
	respond(ctx, w, http.StatusOK, message, toggleResponse{Active: active})
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.PathValue("channelId")
	subs, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		logging.FromContext(ctx).Error("list subscribers failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load subscribers")
		return
	}

	out := make([]subscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriptionDTO{ID: sub.ID, ChannelID: sub.ChannelID, SubscriberID: sub.SubscriberID})
	}
	respond(ctx, w, http.StatusOK, "subscribers", out)
}

// Subscribed handles GET /api/v1/subscriptions/u/{userId}.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID := r.PathValue("userId")
	subs, err := h.Subscriptions.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		logging.FromContext(ctx).Error("list subscribed channels failed", "error", err, "subscriberId", subscriberID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}

	out := make([]subscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriptionDTO{ID: sub.ID, ChannelID: sub.ChannelID, SubscriberID: sub.SubscriberID})
	}
	respond(ctx, w, http.StatusOK, "subscribed channels", out)
}

type subscriptionDTO struct {
	ID           string `json:"id"`
	ChannelID    string `json:"channelId"`
	SubscriberID string `json:"subscriberId"`
}
