package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// DashboardHandler exposes the owner-facing channel dashboard.
type DashboardHandler struct {
	Views ViewStore
}

// Stats handles GET /api/v1/dashboard/stats. Totals cover everything the
// caller owns, including likes received across all three content kinds.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	stats, err := h.Views.ChannelStats(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("channel stats failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel stats")
		return
	}

	respond(ctx, w, http.StatusOK, "channel stats", toChannelStatsDTO(stats))
}

// Videos handles GET /api/v1/dashboard/videos, listing the caller's own
// uploads newest first.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	query := r.URL.Query()
	videos, err := h.Views.ListVideos(ctx, repositories.ListVideosParams{
		OwnerID: user.ID,
		Page:    intQuery(query.Get("page"), 1),
		Limit:   intQuery(query.Get("limit"), 10),
	})
	if err != nil {
		logging.FromContext(ctx).Error("dashboard videos failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	respond(ctx, w, http.StatusOK, "channel videos", toVideoWithOwnerDTOs(videos))
}

type channelStatsDTO struct {
	TotalVideos   int64 `json:"totalVideos"`
	TotalViews    int64 `json:"totalViews"`
	TotalTweets   int64 `json:"totalTweets"`
	TotalComments int64 `json:"totalComments"`
	VideoLikes    int64 `json:"videoLikes"`
	CommentLikes  int64 `json:"commentLikes"`
	TweetLikes    int64 `json:"tweetLikes"`
	TotalLikes    int64 `json:"totalLikes"`
}

func toChannelStatsDTO(stats models.ChannelStats) channelStatsDTO {
	return channelStatsDTO{
		TotalVideos:   stats.TotalVideos,
		TotalViews:    stats.TotalViews,
		TotalTweets:   stats.TotalTweets,
		TotalComments: stats.TotalComments,
		VideoLikes:    stats.VideoLikes,
		CommentLikes:  stats.CommentLikes,
		TweetLikes:    stats.TweetLikes,
		TotalLikes:    stats.TotalLikes,
	}
}
