package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

// AuditEntry records who changed what.
type AuditEntry struct {
	UserID     int
	Role       auth.Role
	Action     string // create, update, delete, login, logout, register
	Resource   string
	ResourceID string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs every state-changing request and every authentication event.
// Plain reads are left to the request logger.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return next(c)
			}

			err := next(c)

			entry := buildAuditEntry(c, err)
			evt := logger.Info()
			if entry.StatusCode >= 400 {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Int("user_id", entry.UserID).
				Str("role", string(entry.Role)).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("audit")

			return err
		}
	}
}

func buildAuditEntry(c echo.Context, err error) AuditEntry {
	req := c.Request()
	entry := AuditEntry{
		Method:     req.Method,
		Path:       req.URL.Path,
		IPAddress:  c.RealIP(),
		StatusCode: c.Response().Status,
		Timestamp:  time.Now().UTC(),
	}
	if err != nil && !c.Response().Committed {
		entry.StatusCode = apperr.Status(err)
	}
	if rid, ok := c.Get("request_id").(string); ok {
		entry.RequestID = rid
	}
	// Read after next so a successful login is attributed to its user.
	if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
		entry.UserID = claims.UserID
		entry.Role = claims.Role
	}

	entry.Resource, entry.ResourceID, entry.Action = classify(req.Method, req.URL.Path)
	return entry
}

// classify derives resource, id and action from the path. Both /x/:id and
// /api/x/:id, and the web form variants /x/:id/edit and /x/:id/delete, map
// to the same resource.
func classify(method, path string) (resource, id, action string) {
	segs := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api"), "/"), "/")
	if len(segs) > 0 {
		resource = segs[0]
	}
	if resource == "auth" && len(segs) > 1 {
		return resource, "", segs[1]
	}
	switch resource {
	case "login", "logout", "register":
		return "auth", "", resource
	}
	if len(segs) > 1 {
		id = segs[1]
	}

	switch method {
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	default:
		action = "create"
		if id != "" {
			action = "update"
		}
		if len(segs) > 2 && segs[2] == "delete" {
			action = "delete"
		}
	}
	return resource, id, action
}
