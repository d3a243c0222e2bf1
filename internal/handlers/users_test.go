package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

func TestUserHandlerRegisterMultipart(t *testing.T) {
	media := &fakeMediaStore{}

	var registered auth.RegisterParams
	handler := UserHandler{
		Media: media,
		Sessions: fakeSessionManager{
			RegisterFunc: func(_ context.Context, p auth.RegisterParams) (models.User, error) {
				registered = p
				return models.User{ID: "u1", Username: p.Username, Email: p.Email, AvatarURL: p.AvatarURL}, nil
			},
		},
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("username", "alice")
	_ = form.WriteField("email", "alice@example.com")
	_ = form.WriteField("fullName", "Alice Doe")
	_ = form.WriteField("password", "password123")
	avatar, _ := form.CreateFormFile("avatar", "face.png")
	_, _ = avatar.Write([]byte("png-bytes"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(media.uploads) != 1 || media.uploads[0] != "avatars/face.png" {
		t.Fatalf("unexpected uploads: %v", media.uploads)
	}
	if registered.AvatarURL != "https://cdn.test/avatars/face.png" {
		t.Fatalf("expected uploaded avatar url to reach registration, got %q", registered.AvatarURL)
	}
	if registered.Username != "alice" {
		t.Fatalf("unexpected registration params: %+v", registered)
	}

	var resp struct {
		Success bool    `json:"success"`
		Data    userDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data.ID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserHandlerRegisterUploadFailureCreatesNoUser(t *testing.T) {
	registerCalled := false
	handler := UserHandler{
		Media: &fakeMediaStore{err: errors.New("bucket unreachable")},
		Sessions: fakeSessionManager{
			RegisterFunc: func(_ context.Context, p auth.RegisterParams) (models.User, error) {
				registerCalled = true
				return models.User{}, nil
			},
		},
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("username", "alice")
	_ = form.WriteField("email", "alice@example.com")
	_ = form.WriteField("password", "password123")
	avatar, _ := form.CreateFormFile("avatar", "face.png")
	_, _ = avatar.Write([]byte("png-bytes"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
	if registerCalled {
		t.Fatal("expected registration to be skipped after failed upload")
	}
}

func TestUserHandlerRegisterBadFieldsUploadsNothing(t *testing.T) {
	media := &fakeMediaStore{}
	handler := UserHandler{
		Media: media,
		Sessions: fakeSessionManager{
			RegisterFunc: func(context.Context, auth.RegisterParams) (models.User, error) {
				t.Fatal("registration must not run without required fields")
				return models.User{}, nil
			},
		},
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("email", "alice@example.com")
	_ = form.WriteField("password", "password123")
	avatar, _ := form.CreateFormFile("avatar", "face.png")
	_, _ = avatar.Write([]byte("png-bytes"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(media.uploads) != 0 {
		t.Fatalf("expected no uploads for a rejected registration, got %v", media.uploads)
	}
}

func TestUserHandlerLoginSetsCookies(t *testing.T) {
	tokens := models.SessionTokens{
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}

	handler := UserHandler{
		Sessions: fakeSessionManager{
			LoginFunc: func(_ context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
				if identifier != "alice" || password != "password123" {
					t.Fatalf("unexpected credentials: %s %s", identifier, password)
				}
				return models.User{ID: "u1", Username: "alice"}, tokens, nil
			},
		},
	}

	body := strings.NewReader(`{"username":"alice","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body)
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, cookie := range cookies {
		byName[cookie.Name] = cookie
	}
	access, ok := byName["accessToken"]
	if !ok || access.Value != "access-token" || !access.HttpOnly {
		t.Fatalf("unexpected access cookie: %+v", access)
	}
	refresh, ok := byName["refreshToken"]
	if !ok || refresh.Value != "refresh-token" || !refresh.HttpOnly {
		t.Fatalf("unexpected refresh cookie: %+v", refresh)
	}

	var resp struct {
		Data loginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.AccessToken != "access-token" || resp.Data.User.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp.Data)
	}
}

func TestUserHandlerLoginFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown account", repositories.ErrNotFound, http.StatusNotFound},
		{"wrong password", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"missing fields", auth.ErrValidation, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := UserHandler{
				Sessions: fakeSessionManager{
					LoginFunc: func(context.Context, string, string) (models.User, models.SessionTokens, error) {
						return models.User{}, models.SessionTokens{}, tc.err
					},
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestUserHandlerRefreshFromCookie(t *testing.T) {
	handler := UserHandler{
		Sessions: fakeSessionManager{
			RefreshFunc: func(_ context.Context, token string) (models.SessionTokens, error) {
				if token != "old-refresh" {
					t.Fatalf("unexpected token: %s", token)
				}
				return models.SessionTokens{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
			},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "old-refresh"})
	rec := httptest.NewRecorder()

	handler.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refreshToken" && cookie.Value != "new-refresh" {
			t.Fatalf("expected rotated refresh cookie, got %q", cookie.Value)
		}
	}
}

func TestUserHandlerRefreshStaleTokenClearsCookies(t *testing.T) {
	handler := UserHandler{
		Sessions: fakeSessionManager{
			RefreshFunc: func(context.Context, string) (models.SessionTokens, error) {
				return models.SessionTokens{}, auth.ErrStaleRefreshToken
			},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "stolen"})
	rec := httptest.NewRecorder()

	handler.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	cleared := 0
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both cookies cleared, got %d", cleared)
	}
}

func TestUserHandlerChangePasswordWrongOld(t *testing.T) {
	handler := UserHandler{
		Sessions: fakeSessionManager{
			ChangePasswordFunc: func(context.Context, string, string, string) error {
				return auth.ErrInvalidCredentials
			},
		},
	}

	body := strings.NewReader(`{"oldPassword":"wrong","newPassword":"password456"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", body)
	req = req.WithContext(auth.WithUser(req.Context(), models.User{ID: "u1"}))
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestUserHandlerCurrentUserRequiresContext(t *testing.T) {
	handler := UserHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	rec := httptest.NewRecorder()
	handler.CurrentUser(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req = req.WithContext(auth.WithUser(req.Context(), models.User{ID: "u1", Username: "alice", PasswordHash: "secret"}))
	rec = httptest.NewRecorder()
	handler.CurrentUser(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatal("password hash leaked into response")
	}
}

func TestUserHandlerChannel(t *testing.T) {
	handler := UserHandler{
		Views: fakeViewStore{
			ChannelProfileFunc: func(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
				if username != "bob" || viewerID != "u1" {
					t.Fatalf("unexpected lookup: %s %s", username, viewerID)
				}
				return models.ChannelProfile{ID: "u2", Username: "bob", SubscriberCount: 3, IsSubscribed: true}, nil
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/bob", nil)
	req.SetPathValue("username", "bob")
	req = req.WithContext(auth.WithUser(req.Context(), models.User{ID: "u1"}))
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data channelProfileDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscriberCount != 3 || !resp.Data.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", resp.Data)
	}
}
