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

// CommentHandler implements comment endpoints scoped to a video.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
}

// List handles GET /api/v1/comments/{videoId}, newest first with page/limit
// pagination.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logging.FromContext(ctx).Error("find video failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comments")
		return
	}

	query := r.URL.Query()
	comments, err := h.Comments.ListForVideo(ctx, videoID, intQuery(query.Get("page"), 1), intQuery(query.Get("limit"), 10))
	if err != nil {
		logging.FromContext(ctx).Error("list comments failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comments")
		return
	}

	out := make([]commentDTO, 0, len(comments))
	for _, comment := range comments {
		out = append(out, toCommentDTO(comment))
	}
	respond(ctx, w, http.StatusOK, "comments", out)
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	videoID := r.PathValue("videoId")

	var req commentRequest
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
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		// A broken video foreign key surfaces as not found.
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logging.FromContext(ctx).Error("create comment failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	respond(ctx, w, http.StatusCreated, "comment created", toCommentDTO(comment))
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	commentID := r.PathValue("commentId")
	comment, err := h.Comments.UpdateIfOwner(ctx, commentID, user.ID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("update comment failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update comment")
		return
	}

	respond(ctx, w, http.StatusOK, "comment updated", toCommentDTO(comment))
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	commentID := r.PathValue("commentId")
	if err := h.Comments.DeleteIfOwner(ctx, commentID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found or not authorized")
			return
		}
		logging.FromContext(ctx).Error("delete comment failed", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	respond(ctx, w, http.StatusOK, "comment deleted", nil)
}

type commentRequest struct {
	Content string `json:"content"`
}
