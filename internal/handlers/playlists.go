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

// PlaylistHandler implements playlist CRUD and membership endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logging.FromContext(ctx).Error("create playlist failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respond(ctx, w, http.StatusCreated, "playlist created", toPlaylistDTO(playlist))
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID := r.PathValue("playlistId")
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return
		}
		logging.FromContext(ctx).Error("find playlist failed", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return
	}

	respond(ctx, w, http.StatusOK, "playlist", toPlaylistDTO(playlist))
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	playlists, err := h.Playlists.ListForUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list playlists failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlists")
		return
	}

	out := make([]playlistDTO, 0, len(playlists))
	for _, playlist := range playlists {
		out = append(out, toPlaylistDTO(playlist))
	}
	respond(ctx, w, http.StatusOK, "playlists", out)
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	playlistID := r.PathValue("playlistId")
	playlist, err := h.Playlists.UpdateIfOwner(ctx, playlistID, user.ID, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("update playlist failed", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	respond(ctx, w, http.StatusOK, "playlist updated", toPlaylistDTO(playlist))
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	playlistID := r.PathValue("playlistId")
	if err := h.Playlists.DeleteIfOwner(ctx, playlistID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("delete playlist failed", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}

	respond(ctx, w, http.StatusOK, "playlist deleted", nil)
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logging.FromContext(ctx).Error("find video failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add video to playlist")
		return
	}

	playlistID := r.PathValue("playlistId")
	playlist, err := h.Playlists.AddVideoIfOwner(ctx, playlistID, user.ID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("add playlist video failed", "error", err, "playlistId", playlistID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add video to playlist")
		return
	}

	respond(ctx, w, http.StatusOK, "video added to playlist", toPlaylistDTO(playlist))
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")
	playlistID := r.PathValue("playlistId")
	playlist, err := h.Playlists.RemoveVideoIfOwner(ctx, playlistID, user.ID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("remove playlist video failed", "error", err, "playlistId", playlistID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to remove video from playlist")
		return
	}

	respond(ctx, w, http.StatusOK, "video removed from playlist", toPlaylistDTO(playlist))
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
