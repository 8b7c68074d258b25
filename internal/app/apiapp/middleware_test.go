package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	authsvc "github.com/ave4ge/findateammatebot/internal/services/auth"
)

func TestRequireRoleAllowsCaseInsensitiveMatch(t *testing.T) {
	mw := RequireRole("ADMIN", "VERIFIER")

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 1,
		Role:   "verifier",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole("ADMIN")

	req := httptest.NewRequest(http.MethodGet, "/admin/leaders", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 2,
		Role:   "VERIFIER",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(authsvc.NewTokenManager("secret", time.Hour), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without bearer token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsForeignSignature(t *testing.T) {
	raw, _, err := authsvc.NewTokenManager("other-secret", time.Hour).Issue(100, "ADMIN")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mw := AuthMiddleware(authsvc.NewTokenManager("secret", time.Hour), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called on invalid signature")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	tokens := authsvc.NewTokenManager("secret", time.Hour)
	raw, _, err := tokens.Issue(100, "ADMIN")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mw := AuthMiddleware(tokens, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "bearer "+raw)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing in context")
		}
		if identity.UserID != 100 || identity.Role != "ADMIN" {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

type statsOnlyAdmin struct{}

func (statsOnlyAdmin) Stats(context.Context, int64) (model.Stats, error) {
	return model.Stats{Total: 1}, nil
}

func (statsOnlyAdmin) Leaderboard(context.Context, int64) ([]model.Participant, error) {
	return nil, nil
}

func (statsOnlyAdmin) Lookup(context.Context, int64, string) (model.Participant, error) {
	return model.Participant{UserID: 1}, nil
}

func TestRoutesGuardAdminEndpoints(t *testing.T) {
	tokens := authsvc.NewTokenManager("secret", time.Hour)
	verifierToken, _, err := tokens.Issue(200, "VERIFIER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop())
	RegisterRoutes(r, Dependencies{Tokens: tokens, Admin: statsOnlyAdmin{}, Logger: zap.NewNop()})

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "health is public", path: "/healthz", status: http.StatusOK},
		{name: "stats needs a token", path: "/admin/stats", status: http.StatusUnauthorized},
		{name: "verifier reads stats", path: "/admin/stats", token: verifierToken, status: http.StatusOK},
		{name: "leaders are admin only", path: "/admin/leaders", token: verifierToken, status: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, tc.status)
			}
		})
	}
}
