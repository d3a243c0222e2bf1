package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// envelope is the uniform response body. Success mirrors the HTTP status so
// browser clients can branch without inspecting codes, and Errors carries
// field-level validation detail when present.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(ctx, w, status, envelope{
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, errs ...string) {
	writeEnvelope(ctx, w, status, envelope{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", body.Message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", body.Message)
	}
}

// userDTO is the public projection of an account. The password hash and the
// stored refresh token never leave the server.
type userDTO struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toUserDTO(user models.User) userDTO {
	return userDTO{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

type videoDTO struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toVideoDTO(video models.Video) videoDTO {
	return videoDTO{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
		UpdatedAt:    video.UpdatedAt,
	}
}

type videoOwnerDTO struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

type videoWithOwnerDTO struct {
	videoDTO
	Owner videoOwnerDTO `json:"owner"`
}

func toVideoWithOwnerDTO(video models.VideoWithOwner) videoWithOwnerDTO {
	return videoWithOwnerDTO{
		videoDTO: toVideoDTO(video.Video),
		Owner: videoOwnerDTO{
			Username:  video.Owner.Username,
			FullName:  video.Owner.FullName,
			AvatarURL: video.Owner.AvatarURL,
		},
	}
}

func toVideoWithOwnerDTOs(videos []models.VideoWithOwner) []videoWithOwnerDTO {
	out := make([]videoWithOwnerDTO, 0, len(videos))
	for _, video := range videos {
		out = append(out, toVideoWithOwnerDTO(video))
	}
	return out
}

type commentDTO struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCommentDTO(comment models.Comment) commentDTO {
	return commentDTO{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		OwnerID:   comment.OwnerID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

type tweetDTO struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTweetDTO(tweet models.Tweet) tweetDTO {
	return tweetDTO{
		ID:        tweet.ID,
		OwnerID:   tweet.OwnerID,
		Content:   tweet.Content,
		CreatedAt: tweet.CreatedAt,
		UpdatedAt: tweet.UpdatedAt,
	}
}

type playlistDTO struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPlaylistDTO(playlist models.Playlist) playlistDTO {
	ids := playlist.VideoIDs
	if ids == nil {
		ids = []string{}
	}
	return playlistDTO{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Name:        playlist.Name,
		Description: playlist.Description,
		VideoIDs:    ids,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}
}

type channelProfileDTO struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	AvatarURL         string `json:"avatarUrl"`
	CoverImageURL     string `json:"coverImageUrl"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

func toChannelProfileDTO(profile models.ChannelProfile) channelProfileDTO {
	return channelProfileDTO{
		ID:                profile.ID,
		Username:          profile.Username,
		FullName:          profile.FullName,
		Email:             profile.Email,
		AvatarURL:         profile.AvatarURL,
		CoverImageURL:     profile.CoverImageURL,
		SubscriberCount:   profile.SubscriberCount,
		SubscribedToCount: profile.SubscribedToCount,
		IsSubscribed:      profile.IsSubscribed,
	}
}
