package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

func TestRequireScopeRejectsAnonymous(t *testing.T) {
	handler := RequireScope(enums.ScopeProductRead, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireScopeRejectsMissingGrant(t *testing.T) {
	handler := RequireScope(enums.ScopeUserDelete, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	principal := authz.Principal{ID: uuid.New(), Scopes: []enums.PermissionScope{enums.ScopeUserRead}}
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), principal))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireScopeAllowsGrantedCaller(t *testing.T) {
	var called bool
	handler := RequireScope(enums.ScopeOrderRefund, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	principal := authz.Principal{ID: uuid.New(), Scopes: []enums.PermissionScope{enums.ScopeOrderRefund}}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), principal))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !called {
		t.Fatalf("expected handler to run, got %d", resp.Code)
	}
}
