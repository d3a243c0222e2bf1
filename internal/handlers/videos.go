package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// VideoHandler implements video publishing and retrieval endpoints.
type VideoHandler struct {
	Videos VideoStore
	Users  UserStore
	Views  ViewStore
	Media  MediaStore
}

// List handles GET /api/v1/videos. It lists a single owner's videos with
// optional title search, whitelisted sorting and pagination.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	ownerID := strings.TrimSpace(query.Get("userId"))
	if ownerID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	params := repositories.ListVideosParams{
		OwnerID: ownerID,
		Query:   strings.TrimSpace(query.Get("query")),
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortType"),
		Page:    intQuery(query.Get("page"), 1),
		Limit:   intQuery(query.Get("limit"), 10),
	}

	videos, err := h.Views.ListVideos(ctx, params)
	if err != nil {
		logging.FromContext(ctx).Error("list videos failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	respond(ctx, w, http.StatusOK, "videos", toVideoWithOwnerDTOs(videos))
}

// Publish handles POST /api/v1/videos. The video file and thumbnail arrive
// as multipart parts; duration comes from the client's metadata probe since
// the server does not transcode.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid publish form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoURL, err := h.storeFormFile(r, "videoFile", "videos")
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "video upload failed")
		return
	}
	if videoURL == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}

	thumbnailURL, err := h.storeFormFile(r, "thumbnail", "thumbnails")
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "thumbnail upload failed")
		return
	}

	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)

	now := time.Now().UTC()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("publish failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respond(ctx, w, http.StatusCreated, "video published", toVideoDTO(video))
}

// Get handles GET /api/v1/videos/{videoId}. A successful fetch counts as a
// view and lands in the caller's watch history; both side effects are
// non-fatal for the response.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("find video failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	// An unpublished video is visible to its owner only.
	if !video.IsPublished && video.OwnerID != user.ID {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("increment views failed", "error", err, "videoId", video.ID)
	} else {
		video.Views++
	}
	if err := h.Users.AppendWatchHistory(ctx, user.ID, video.ID); err != nil {
		logger.Warn("append watch history failed", "error", err, "videoId", video.ID, "userId", user.ID)
	}

	respond(ctx, w, http.StatusOK, "video", toVideoDTO(video))
}

// Update handles PATCH /api/v1/videos/{videoId}. Title and description come
// from the form; a replacement thumbnail part is optional.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")

	var title, description, thumbnailURL string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))

		url, err := h.storeFormFile(r, "thumbnail", "thumbnails")
		if err != nil {
			logger.Error("thumbnail upload failed", "error", err)
			respondError(ctx, w, http.StatusBadGateway, "thumbnail upload failed")
			return
		}
		thumbnailURL = url
	} else {
		var req updateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	video, err := h.Videos.UpdateIfOwner(ctx, videoID, user.ID, title, description, thumbnailURL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found or not authorized")
			return
		}
		logger.Error("update video failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update video")
		return
	}

	respond(ctx, w, http.StatusOK, "video updated", toVideoDTO(video))
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")
	if err := h.Videos.DeleteIfOwner(ctx, videoID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("delete video failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	respond(ctx, w, http.StatusOK, "video deleted", nil)
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.TogglePublishIfOwner(ctx, videoID, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("toggle publish failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle publish state")
		return
	}

	respond(ctx, w, http.StatusOK, "publish state toggled", toVideoDTO(video))
}

func (h VideoHandler) storeFormFile(r *http.Request, field, folder string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.Media.Store(r.Context(), folder, header.Filename, file)
}

func intQuery(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
