// Package render produces either JSON or an HTML page from the same
// handler result, depending on what the caller asked for.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/auth"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageNames = []string{"list", "detail", "form", "login", "register", "dashboard", "error"}

// NavLink is one entry of the role-dependent navigation bar.
type NavLink struct {
	Label string
	Href  string
}

// Page is the value every template receives.
type Page struct {
	Title string
	User  *auth.Claims
	Nav   []NavLink
	Flash *Flash
	Data  interface{}
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	return newFromFS(templateFiles)
}

func newFromFS(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout").Funcs(funcs).ParseFS(fsys,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	page, ok := data.(*Page)
	if !ok {
		page = &Page{Data: data}
	}
	if c != nil {
		if claims, ok := auth.ClaimsFromContext(c.Request().Context()); ok {
			page.User = claims
			page.Nav = navFor(claims.Role)
		}
		if page.Flash == nil {
			page.Flash = TakeFlash(c)
		}
	}
	return t.ExecuteTemplate(w, "layout", page)
}

var sections = []struct {
	label string
	href  string
	op    auth.Operation
}{
	{"Patients", "/patients", auth.OpPatientsRead},
	{"Appointments", "/appointments", auth.OpAppointmentsRead},
	{"Doctors", "/doctors", auth.OpFacilityRead},
	{"Departments", "/departments", auth.OpFacilityRead},
	{"Pharmacy", "/pharmacy", auth.OpPharmacyRead},
	{"Laboratory", "/laboratory", auth.OpLaboratoryRead},
	{"Radiology", "/radiology", auth.OpRadiologyRead},
	{"Supplies", "/supplies", auth.OpSuppliesRead},
	{"Users", "/users", auth.OpUsersManage},
}

func navFor(role auth.Role) []NavLink {
	links := []NavLink{{Label: "Dashboard", Href: role.DashboardPath()}}
	for _, s := range sections {
		if auth.Can(role, s.op) {
			links = append(links, NavLink{Label: s.label, Href: s.href})
		}
	}
	return links
}

// Sections returns the navigation links role may use, without the
// dashboard entry.
func Sections(role auth.Role) []NavLink {
	return navFor(role)[1:]
}

// HTML renders view with a full Page.
func HTML(c echo.Context, status int, view string, page *Page) error {
	return c.Render(status, view, page)
}

// List answers with items as a JSON array, or as a table page.
func List(c echo.Context, title, base string, items interface{}, canCreate bool) error {
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, items)
	}
	return HTML(c, http.StatusOK, "list", &Page{Title: title, Data: NewTable(base, items, canCreate)})
}

// Detail answers with item as a JSON object, or as a detail page.
func Detail(c echo.Context, title, base string, item interface{}, actions DetailActions) error {
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, item)
	}
	return HTML(c, http.StatusOK, "detail", &Page{Title: title, Data: NewRecord(base, item, actions)})
}

// Saved answers a successful create or update: the entity as JSON, or a
// redirect to next with a flash message.
func Saved(c echo.Context, status int, item interface{}, next, message string) error {
	if auth.IsAPIRequest(c) {
		return c.JSON(status, item)
	}
	SetFlash(c, FlashSuccess, message)
	return c.Redirect(http.StatusSeeOther, next)
}

// Deleted answers a successful delete: 204 for API callers, otherwise a
// redirect to next with a flash message.
func Deleted(c echo.Context, next, message string) error {
	if auth.IsAPIRequest(c) {
		return c.NoContent(http.StatusNoContent)
	}
	SetFlash(c, FlashSuccess, message)
	return c.Redirect(http.StatusSeeOther, next)
}
