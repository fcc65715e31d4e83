package account

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/internal/platform/render"
	"github.com/hospital/hms/pkg/pagination"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	LoginAttempt(ok bool)
}

type HandlerConfig struct {
	Sessions auth.SessionStore
	Cookie   auth.SessionCookie
	// Tokens may be nil, in which case /api/auth/token is not served.
	Tokens *auth.TokenIssuer
	Logins LoginRecorder
	// RegistrationOpen lets anonymous visitors sign up. When false only an
	// Admin can register accounts.
	RegistrationOpen bool
	// Throttle, when set, guards the credential-accepting routes (login and
	// register) and is shared across both surfaces.
	Throttle echo.MiddlewareFunc
}

type Handler struct {
	svc *Service
	cfg HandlerConfig
}

func NewHandler(svc *Service, cfg HandlerConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) RegisterRoutes(web, api *echo.Group) {
	self := auth.RequireOp(auth.OpSelf)
	manage := auth.RequireOp(auth.OpUsersManage)
	var register []echo.MiddlewareFunc
	if !h.cfg.RegistrationOpen {
		register = append(register, manage)
	}
	var throttle []echo.MiddlewareFunc
	if h.cfg.Throttle != nil {
		throttle = append(throttle, h.cfg.Throttle)
	}
	registerPost := append(append([]echo.MiddlewareFunc{}, throttle...), register...)

	web.GET("/", h.Index)
	web.GET("/login", h.LoginPage)
	web.POST("/login", h.Login, throttle...)
	web.GET("/register", h.RegisterPage, register...)
	web.POST("/register", h.Register, registerPost...)
	web.GET("/logout", h.Logout, self)
	web.POST("/logout", h.Logout, self)

	api.POST("/auth/login", h.Login, throttle...)
	api.POST("/auth/register", h.Register, registerPost...)
	api.POST("/auth/logout", h.Logout, self)
	api.GET("/auth/me", h.Me, self)
	if h.cfg.Tokens != nil {
		api.POST("/auth/token", h.IssueToken, self)
	}

	for _, g := range []*echo.Group{web, api} {
		g.GET("/users", h.ListUsers, manage)
		g.GET("/users/:id", h.GetUser, manage)
	}
	web.GET("/users/:id/edit", h.EditUserForm, manage)
	web.POST("/users/:id", h.UpdateUser, manage)
	web.POST("/users/:id/delete", h.DeleteUser, manage)
	api.PUT("/users/:id", h.UpdateUser, manage)
	api.DELETE("/users/:id", h.DeleteUser, manage)
}

// Index sends a signed-in user to their dashboard and everyone else to the
// login page.
func (h *Handler) Index(c echo.Context) error {
	if claims, ok := auth.ClaimsFromContext(c.Request().Context()); ok {
		return c.Redirect(http.StatusSeeOther, claims.Role.DashboardPath())
	}
	return c.Redirect(http.StatusSeeOther, auth.LoginPath)
}

// -- Authentication --

func (h *Handler) LoginPage(c echo.Context) error {
	next := auth.SafeRedirect(c.QueryParam("next"), "")
	if claims, ok := auth.ClaimsFromContext(c.Request().Context()); ok {
		return c.Redirect(http.StatusSeeOther, auth.SafeRedirect(next, claims.Role.DashboardPath()))
	}
	var data interface{}
	if next != "" {
		data = next
	}
	return render.HTML(c, http.StatusOK, "login", &render.Page{Title: "Log in", Data: data})
}

func (h *Handler) Login(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	email, err := v.Required("email")
	if err != nil {
		return err
	}
	password, err := v.Required("password")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	u, err := h.svc.Authenticate(ctx, email, password)
	if h.cfg.Logins != nil {
		h.cfg.Logins.LoginAttempt(err == nil)
	}
	if err != nil {
		return err
	}

	claims := u.Claims()
	sess, err := h.cfg.Sessions.Create(ctx, claims, h.cfg.Cookie.TTL)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	h.cfg.Cookie.Set(c, sess)
	c.SetRequest(c.Request().WithContext(auth.WithClaims(ctx, &sess.Claims)))

	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "Login successful",
			"user":    sess.Claims,
		})
	}
	render.SetFlash(c, render.FlashSuccess, "Welcome, "+u.Name)
	return c.Redirect(http.StatusSeeOther, auth.SafeRedirect(v["next"], u.Role.DashboardPath()))
}

// Logout ends the current session and revokes every bearer token the
// caller holds.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if id, ok := c.Get("session_id").(string); ok && id != "" {
		if err := h.cfg.Sessions.Delete(ctx, id); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	if claims, ok := auth.ClaimsFromContext(ctx); ok && h.cfg.Tokens != nil {
		if err := h.cfg.Tokens.DeleteForUser(ctx, claims.UserID); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	h.cfg.Cookie.Clear(c)
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
	}
	render.SetFlash(c, render.FlashSuccess, "You have been logged out")
	return c.Redirect(http.StatusSeeOther, auth.LoginPath)
}

func (h *Handler) RegisterPage(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "register", &render.Page{Title: "Register", Data: auth.AllRoles()})
}

func (h *Handler) Register(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	r, err := RegistrationFrom(v)
	if err != nil {
		return err
	}
	u, err := h.svc.Register(c.Request().Context(), r)
	if err != nil {
		return err
	}
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusCreated, map[string]interface{}{
			"message": "User registered successfully",
			"user":    u,
		})
	}
	if _, ok := auth.ClaimsFromContext(c.Request().Context()); ok && !h.cfg.RegistrationOpen {
		render.SetFlash(c, render.FlashSuccess, "User "+u.Email+" registered")
		return c.Redirect(http.StatusSeeOther, "/users")
	}
	render.SetFlash(c, render.FlashSuccess, "Registration successful, please log in")
	return c.Redirect(http.StatusSeeOther, auth.LoginPath)
}

// Me returns the stored account of the caller.
func (h *Handler) Me(c echo.Context) error {
	u, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IssueToken trades the caller's session for a bearer token carrying the
// same claims.
func (h *Handler) IssueToken(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c.Request().Context())
	if !ok {
		return apperr.ErrUnauthenticated
	}
	token, exp, err := h.cfg.Tokens.Issue(c.Request().Context(), *claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp})
}

// -- User administration --

func userInputs() []render.Input {
	roles := make([]string, 0, len(auth.AllRoles()))
	for _, r := range auth.AllRoles() {
		roles = append(roles, string(r))
	}
	return []render.Input{
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "phone", Label: "Phone", Type: "text"},
		{Name: "role", Label: "Role", Type: "select", Options: roles},
		{Name: "password", Label: "New password (leave blank to keep)", Type: "password"},
	}
}

func (h *Handler) ListUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	return render.List(c, "Users", "/users", users, false)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.Detail(c, u.Name, "/users", u, render.DetailActions{CanEdit: true, CanDelete: true})
}

func (h *Handler) EditUserForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit user",
		Data: &render.FormView{
			Action: fmt.Sprintf("/users/%d", id),
			Submit: "Save",
			Inputs: render.Prefill(userInputs(), u),
		},
	})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, u, fmt.Sprintf("/users/%d", id), "User updated")
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, "/users", "User deleted")
}
