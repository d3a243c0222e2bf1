package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// LikeHandler implements like toggling across videos, comments and tweets,
// plus the caller's liked-videos view.
type LikeHandler struct {
	Likes    LikeStore
	Comments CommentStore
	Tweets   TweetStore
	Videos   VideoStore
	Views    ViewStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTarget{Kind: models.TargetVideo, ID: r.PathValue("videoId")})
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTarget{Kind: models.TargetComment, ID: r.PathValue("commentId")})
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTarget{Kind: models.TargetTweet, ID: r.PathValue("tweetId")})
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.targetExists(ctx, target); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, string(target.Kind)+" not found")
			return
		}
		logging.FromContext(ctx).Error("like target lookup failed", "error", err, "kind", target.Kind, "id", target.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	active, err := h.Likes.Toggle(ctx, user.ID, target)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, string(target.Kind)+" not found")
			return
		}
		logging.FromContext(ctx).Error("toggle like failed", "error", err, "kind", target.Kind, "id", target.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	message := "like removed"
	if active {
		message = "like added"
	}
	respond(ctx, w, http.StatusOK, message, toggleResponse{Active: active})
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videos, err := h.Views.LikedVideos(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("liked videos failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load liked videos")
		return
	}

	respond(ctx, w, http.StatusOK, "liked videos", toVideoWithOwnerDTOs(videos))
}

func (h LikeHandler) targetExists(ctx context.Context, target models.LikeTarget) error {
	var err error
	switch target.Kind {
	case models.TargetVideo:
		_, err = h.Videos.FindByID(ctx, target.ID)
	case models.TargetComment:
		_, err = h.Comments.FindByID(ctx, target.ID)
	case models.TargetTweet:
		_, err = h.Tweets.FindByID(ctx, target.ID)
	}
	return err
}

type toggleResponse struct {
	Active bool `json:"active"`
}
