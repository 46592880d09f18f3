package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"melodex/core/auth"
)

func testHandler(t *testing.T) *APIHandler {
	t.Helper()
	return &APIHandler{verifier: auth.NewVerifier("test-secret", time.Hour)}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	h := testHandler(t)
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without credentials")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	h := testHandler(t)
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewarePassesClaims(t *testing.T) {
	h := testHandler(t)
	token, err := h.verifier.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", auth.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	called := false
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, err := claimsFromContext(r.Context())
		if err != nil {
			t.Fatalf("claimsFromContext: %v", err)
		}
		if claims.UserID != "507f1f77bcf86cd799439011" {
			t.Errorf("UserID = %q", claims.UserID)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(httptest.NewRecorder(), req)
	if !called {
		t.Error("handler was not called with valid credentials")
	}
}

func TestRequireAuthorRejectsListener(t *testing.T) {
	h := testHandler(t)
	token, err := h.verifier.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", auth.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := h.AuthMiddleware(h.RequireAuthor(func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-author must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/songs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAuthorAllowsAuthor(t *testing.T) {
	h := testHandler(t)
	token, err := h.verifier.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", auth.RoleAuthor)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	called := false
	handler := h.AuthMiddleware(h.RequireAuthor(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/songs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(httptest.NewRecorder(), req)
	if !called {
		t.Error("author should reach the handler")
	}
}
