package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

var testCookie = SessionCookie{Name: "hms_session", TTL: time.Hour}

type stubLookup struct {
	role Role
	err  error
}

func (s stubLookup) CurrentRole(context.Context, int) (Role, error) { return s.role, s.err }

// run passes req through Authenticate and then guard, returning the
// recorder, the handler error and whether the final handler ran.
func run(t *testing.T, cfg AuthConfig, guard echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, *Claims, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Claims
	final := func(c echo.Context) error {
		seen, _ = ClaimsFromContext(c.Request().Context())
		if seen == nil {
			seen = &Claims{}
		}
		return c.String(http.StatusOK, "ok")
	}
	h := final
	if guard != nil {
		h = guard(h)
	}
	err := Authenticate(cfg)(h)(c)
	return rec, seen, err
}

func sessionRequest(t *testing.T, store SessionStore, path string, claims Claims) *http.Request {
	t.Helper()
	sess, err := store.Create(context.Background(), claims, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: sess.ID})
	return req
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/patients", Claims{UserID: 3, Role: RoleNurse, Name: "N"})

	_, seen, err := run(t, AuthConfig{Sessions: store, Cookie: testCookie}, nil, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.UserID != 3 || seen.Role != RoleNurse {
		t.Errorf("unexpected claims: %+v", seen)
	}
}

func TestAuthenticate_UnknownCookieIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: "forged"})

	_, seen, err := run(t, AuthConfig{Sessions: NewMemorySessionStore(), Cookie: testCookie}, nil, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.UserID != 0 {
		t.Errorf("expected anonymous request, got %+v", seen)
	}
}

func TestAuthenticate_BearerToken(t *testing.T) {
	ti := NewTokenIssuer([]byte("k"), time.Hour, nil)
	tok, _, _ := ti.Issue(context.Background(), Claims{UserID: 9, Role: RoleChemist, Name: "C"})
	req := httptest.NewRequest(http.MethodGet, "/api/laboratory", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)

	_, seen, err := run(t, AuthConfig{Cookie: testCookie, Tokens: ti}, nil, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.UserID != 9 || seen.Role != RoleChemist {
		t.Errorf("unexpected claims: %+v", seen)
	}
}

func TestAuthenticate_RevokedBearerToken(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessionStore()
	ti := NewTokenIssuer([]byte("k"), time.Hour, nil)
	tok, _, _ := ti.Issue(ctx, Claims{UserID: 42, Role: RoleAdmin, Name: "A"})

	if err := (Revokers{sessions, ti}).DeleteForUser(ctx, 42); err != nil {
		t.Fatalf("DeleteForUser: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/users/7", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	_, seen, err := run(t, AuthConfig{Sessions: sessions, Cookie: testCookie, Tokens: ti}, RequireOp(OpUsersManage), req)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("revoked token: want ErrUnauthenticated, got %v", err)
	}
	if seen != nil {
		t.Error("handler ran for a revoked token")
	}
}

type failingRegistry struct{ *MemoryTokenRegistry }

func (failingRegistry) Active(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestAuthenticate_TokenRegistryError(t *testing.T) {
	ti := NewTokenIssuer([]byte("k"), time.Hour, failingRegistry{NewMemoryTokenRegistry()})
	tok, _, _ := ti.Issue(context.Background(), Claims{UserID: 9, Role: RoleChemist})
	req := httptest.NewRequest(http.MethodGet, "/api/laboratory", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)

	if _, _, err := run(t, AuthConfig{Cookie: testCookie, Tokens: ti}, nil, req); err == nil {
		t.Error("expected registry failure to surface")
	}
}

func TestAuthenticate_StaleRoleByDefault(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/patients", Claims{UserID: 3, Role: RoleNurse})

	// Without Refresh the snapshot role wins even if storage changed.
	_, seen, _ := run(t, AuthConfig{Sessions: store, Cookie: testCookie}, nil, req)
	if seen.Role != RoleNurse {
		t.Errorf("expected snapshot role Nurse, got %s", seen.Role)
	}
}

func TestAuthenticate_RefreshRole(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/patients", Claims{UserID: 3, Role: RoleNurse})

	cfg := AuthConfig{Sessions: store, Cookie: testCookie, Refresh: stubLookup{role: RoleDoctor}}
	_, seen, _ := run(t, cfg, nil, req)
	if seen.Role != RoleDoctor {
		t.Errorf("expected refreshed role Doctor, got %s", seen.Role)
	}
}

func TestAuthenticate_RefreshDeletedUser(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/patients", Claims{UserID: 3, Role: RoleNurse})

	cfg := AuthConfig{Sessions: store, Cookie: testCookie, Refresh: stubLookup{err: apperr.NotFound("user", 3)}}
	_, seen, err := run(t, cfg, nil, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.UserID != 0 {
		t.Error("expected deleted user to be treated as anonymous")
	}
}

func TestRequire_AnonymousWebRedirects(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/patients?x=1", nil)
	rec, seen, err := run(t, AuthConfig{Sessions: NewMemorySessionStore(), Cookie: testCookie}, Require(AllRoles()), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != nil {
		t.Error("handler must not run for anonymous callers")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?next=") {
		t.Errorf("unexpected redirect: %s", loc)
	}
}

func TestRequire_AnonymousAPIUnauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	_, seen, err := run(t, AuthConfig{Cookie: testCookie}, Require(AllRoles()), req)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if seen != nil {
		t.Error("handler must not run")
	}
}

func TestRequire_Forbidden(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/api/supplies", Claims{UserID: 5, Role: RoleNurse})

	_, seen, err := run(t, AuthConfig{Sessions: store, Cookie: testCookie}, RequireOp(OpSuppliesRead), req)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if seen != nil {
		t.Error("handler must not run for a forbidden role")
	}
}

func TestRequire_Allowed(t *testing.T) {
	store := NewMemorySessionStore()
	req := sessionRequest(t, store, "/api/supplies", Claims{UserID: 5, Role: RoleReceptionist})

	rec, seen, err := run(t, AuthConfig{Sessions: store, Cookie: testCookie}, RequireOp(OpSuppliesRead), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || rec.Code != http.StatusOK {
		t.Errorf("expected handler to run, code %d", rec.Code)
	}
}

func TestIsAPIRequest(t *testing.T) {
	e := echo.New()
	tests := []struct {
		path, accept string
		want         bool
	}{
		{"/api/patients", "", true},
		{"/patients", "", false},
		{"/patients", "application/json", true},
		{"/apiary", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.accept != "" {
			req.Header.Set(echo.HeaderAccept, tt.accept)
		}
		if got := IsAPIRequest(e.NewContext(req, nil)); got != tt.want {
			t.Errorf("IsAPIRequest(%s, %q) = %v, want %v", tt.path, tt.accept, got, tt.want)
		}
	}
}

func TestSafeRedirect(t *testing.T) {
	if SafeRedirect("/patients/3", "/") != "/patients/3" {
		t.Error("expected local path to be kept")
	}
	for _, bad := range []string{"", "https://evil.example", "//evil.example", "/\\evil"} {
		if SafeRedirect(bad, "/") != "/" {
			t.Errorf("expected %q to fall back", bad)
		}
	}
}

func TestAuthSkipper(t *testing.T) {
	if !IsPublicPath("/health") || !IsPublicPath("/static/app.css") {
		t.Error("expected infrastructure paths to be public")
	}
	if IsPublicPath("/patients") {
		t.Error("expected /patients to require auth")
	}
}
