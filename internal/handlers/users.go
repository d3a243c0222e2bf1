package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

const maxUploadMemory = 32 << 20

// UserHandler implements account, session and profile endpoints.
type UserHandler struct {
	Sessions SessionManager
	Users    UserStore
	Views    ViewStore
	Media    MediaStore
	Limiter  RateLimiter
}

// Register handles POST /api/v1/users/register. Profile images arrive as
// multipart parts and are uploaded before the account is created, so a
// failed upload never leaves a half-populated user behind.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	params := auth.RegisterParams{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			logger.Warn("invalid register form", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		params.Username = r.FormValue("username")
		params.Email = r.FormValue("email")
		params.FullName = r.FormValue("fullName")
		params.Password = r.FormValue("password")

		// Reject bad field values before any blob leaves for the object
		// store, so a doomed registration uploads nothing.
		if params.Username == "" || params.Email == "" || params.Password == "" {
			respondError(ctx, w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		avatarURL, err := h.storeFormFile(r, "avatar", "avatars")
		if err != nil {
			logger.Error("avatar upload failed", "error", err)
			respondError(ctx, w, http.StatusBadGateway, "avatar upload failed")
			return
		}
		coverURL, err := h.storeFormFile(r, "coverImage", "covers")
		if err != nil {
			logger.Error("cover image upload failed", "error", err)
			respondError(ctx, w, http.StatusBadGateway, "cover image upload failed")
			return
		}
		params.AvatarURL = avatarURL
		params.CoverImageURL = coverURL
	} else {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid register payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		params.Username = req.Username
		params.Email = req.Email
		params.FullName = req.FullName
		params.Password = req.Password
	}

	user, err := h.Sessions.Register(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "username or email already taken")
		default:
			logger.Error("register failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	respond(ctx, w, http.StatusCreated, "account created", toUserDTO(user))
}

// Login handles POST /api/v1/users/login. On success the tokens are both
// set as httpOnly cookies and returned in the body for non-browser clients.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, tokens, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "account does not exist")
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		default:
			logger.Error("login failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to log in")
		}
		return
	}

	setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, tokens.RefreshExpiresAt)
	respond(ctx, w, http.StatusOK, "logged in", loginResponse{
		User:         toUserDTO(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout handles POST /api/v1/users/logout. It revokes the stored refresh
// token and clears both cookies.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.Sessions.Logout(ctx, user.ID); err != nil {
		logging.FromContext(ctx).Error("logout failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	respond(ctx, w, http.StatusOK, "logged out", nil)
}

// RefreshToken handles POST /api/v1/users/refresh-token. The incoming
// refresh token is read from the cookie, the body or the Authorization
// header, and a rotated pair replaces it.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many refresh attempts")
		return
	}

	token := refreshTokenFromRequest(r)
	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrStaleRefreshToken), errors.Is(err, auth.ErrTokenInvalid):
			clearAuthCookies(w)
			respondError(ctx, w, http.StatusUnauthorized, "refresh token is invalid or has been superseded")
		default:
			logger.Error("refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to refresh session")
		}
		return
	}

	setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, tokens.RefreshExpiresAt)
	respond(ctx, w, http.StatusOK, "session refreshed", tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Sessions.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(ctx, w, http.StatusUnauthorized, "old password is incorrect")
		default:
			logging.FromContext(ctx).Error("change password failed", "error", err, "userId", user.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	respond(ctx, w, http.StatusOK, "password changed", nil)
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respond(ctx, w, http.StatusOK, "current user", toUserDTO(user))
}

// UpdateDetails handles PATCH /api/v1/users/update-userDetails.
func (h UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}

	updated, err := h.Users.UpdateDetails(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "email already taken")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "user not found")
		default:
			logging.FromContext(ctx).Error("update details failed", "error", err, "userId", user.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to update details")
		}
		return
	}

	respond(ctx, w, http.StatusOK, "details updated", toUserDTO(updated))
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/update-coverImage.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", h.Users.UpdateCoverImage)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, folder string, apply func(ctx context.Context, userID, url string) (models.User, error)) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	url, err := h.storeFormFile(r, field, folder)
	if err != nil {
		logging.FromContext(ctx).Error("image upload failed", "error", err, "field", field)
		respondError(ctx, w, http.StatusBadGateway, field+" upload failed")
		return
	}
	if url == "" {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}

	updated, err := apply(ctx, user.ID, url)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		logging.FromContext(ctx).Error("image update failed", "error", err, "userId", user.ID, "field", field)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update "+field)
		return
	}

	respond(ctx, w, http.StatusOK, field+" updated", toUserDTO(updated))
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return
		}
		logging.FromContext(ctx).Error("channel profile failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	respond(ctx, w, http.StatusOK, "channel profile", toChannelProfileDTO(profile))
}

// WatchHistory handles GET /api/v1/users/watchHistory.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return
	}

	history, err := h.Views.WatchHistory(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load watch history")
		return
	}

	respond(ctx, w, http.StatusOK, "watch history", toVideoWithOwnerDTOs(history))
}

// storeFormFile uploads a single multipart file when present, returning ""
// when the part was omitted.
func (h UserHandler) storeFormFile(r *http.Request, field, folder string) (string, error) {
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

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return strings.TrimSpace(req.RefreshToken)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, refreshExpires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    refreshToken,
		Path:     "/",
		Expires:  refreshExpires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type loginResponse struct {
	User         userDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
