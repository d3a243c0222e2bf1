package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
)

type authenticatorFunc func(ctx context.Context, token string) (models.User, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (models.User, error) {
	return f(ctx, token)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	handler := RequireAuth(authenticatorFunc(func(context.Context, string) (models.User, error) {
		t.Fatal("authenticator must not run without a token")
		return models.User{}, nil
	}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRequireAuthAcceptsCookieAndBearer(t *testing.T) {
	var sawUser models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user on context")
		}
		sawUser = user
	})

	middleware := RequireAuth(authenticatorFunc(func(_ context.Context, token string) (models.User, error) {
		if token != "valid-token" {
			return models.User{}, errors.New("bad token")
		}
		return models.User{ID: "u1", Username: "alice"}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-token"})
	rec := httptest.NewRecorder()
	middleware(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawUser.ID != "u1" {
		t.Fatalf("cookie auth failed: %d %+v", rec.Code, sawUser)
	}

	sawUser = models.User{}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec = httptest.NewRecorder()
	middleware(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawUser.ID != "u1" {
		t.Fatalf("bearer auth failed: %d %+v", rec.Code, sawUser)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	middleware(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", rec.Code)
	}
}
