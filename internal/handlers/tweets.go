package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets TweetStore
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := time.Now().UTC()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logging.FromContext(ctx).Error("create tweet failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create tweet")
		return
	}

	respond(ctx, w, http.StatusCreated, "tweet created", toTweetDTO(tweet))
}

// ListForUser handles GET /api/v1/tweets/user/{userId}, newest first.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	tweets, err := h.Tweets.ListForUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list tweets failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweets")
		return
	}

	out := make([]tweetDTO, 0, len(tweets))
	for _, tweet := range tweets {
		out = append(out, toTweetDTO(tweet))
	}
	respond(ctx, w, http.StatusOK, "tweets", out)
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweetID := r.PathValue("tweetId")
	tweet, err := h.Tweets.UpdateIfOwner(ctx, tweetID, user.ID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("update tweet failed", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update tweet")
		return
	}

	respond(ctx, w, http.StatusOK, "tweet updated", toTweetDTO(tweet))
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	tweetID := r.PathValue("tweetId")
	if err := h.Tweets.DeleteIfOwner(ctx, tweetID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("delete tweet failed", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete tweet")
		return
	}

	respond(ctx, w, http.StatusOK, "tweet deleted", nil)
}

type tweetRequest struct {
	Content string `json:"content"`
}
