package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/render"
)

func constCount(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func newDashboardServer(t *testing.T, role auth.Role, counts Counts) *echo.Echo {
	t.Helper()
	r, err := render.New()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	e.HTTPErrorHandler = render.ErrorHandler(zerolog.Nop())
	if role != "" {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				claims := &auth.Claims{UserID: 1, Role: role, Name: "Tester"}
				c.SetRequest(c.Request().WithContext(auth.WithClaims(c.Request().Context(), claims)))
				return next(c)
			}
		})
	}
	NewDashboards(Boards(counts)).RegisterRoutes(e.Group(""), e.Group("/api"))
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBoards_EveryRoleLandsOnItsBoard(t *testing.T) {
	paths := map[string]auth.Operation{}
	for _, b := range Boards(Counts{}) {
		paths[b.Path] = b.Op
	}
	for _, role := range auth.AllRoles() {
		if role == auth.RolePatient {
			continue
		}
		op, ok := paths[role.DashboardPath()]
		if !ok {
			t.Errorf("%s: no board at %s", role, role.DashboardPath())
			continue
		}
		if !auth.Can(role, op) {
			t.Errorf("%s may not open its own dashboard", role)
		}
	}
}

func TestDashboards_Counts(t *testing.T) {
	e := newDashboardServer(t, auth.RoleChemist, Counts{LabTests: constCount(4), Patients: constCount(9)})

	rec := get(e, "/api/laboratory/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Counts map[string]int `json:"counts"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Counts["Laboratory tests"] != 4 || body.Counts["Patients"] != 9 {
		t.Errorf("unexpected counts %v", body.Counts)
	}

	rec = get(e, "/laboratory/dashboard")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Laboratory dashboard") {
		t.Errorf("expected HTML dashboard, got %d", rec.Code)
	}
}

func TestDashboards_SkipsMissingCounters(t *testing.T) {
	e := newDashboardServer(t, auth.RoleAdmin, Counts{Users: constCount(2)})

	rec := get(e, "/api/admin/dashboard")
	var body struct {
		Counts map[string]int `json:"counts"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Counts) != 1 || body.Counts["Users"] != 2 {
		t.Errorf("expected only the user count, got %v", body.Counts)
	}
}

func TestDashboards_WrongRole(t *testing.T) {
	e := newDashboardServer(t, auth.RoleNurse, Counts{})

	if rec := get(e, "/api/admin/dashboard"); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if rec := get(e, "/api/nurse/dashboard"); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDashboards_CountError(t *testing.T) {
	failing := func(context.Context) (int, error) { return 0, errors.New("db down") }
	e := newDashboardServer(t, auth.RoleNurse, Counts{Patients: failing})

	if rec := get(e, "/api/nurse/dashboard"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
