package account

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/render"
)

// CountFunc reports the number of rows of one entity.
type CountFunc func(ctx context.Context) (int, error)

// Counts are the entity counters shown on dashboards. Nil counters are
// left off.
type Counts struct {
	Patients       CountFunc
	Appointments   CountFunc
	Doctors        CountFunc
	Departments    CountFunc
	Users          CountFunc
	Medicines      CountFunc
	Supplies       CountFunc
	LabTests       CountFunc
	RadiologyTests CountFunc
}

type tile struct {
	label string
	count CountFunc
}

// Board is one role dashboard.
type Board struct {
	Path  string
	Title string
	Op    auth.Operation
	tiles []tile
}

// Boards lays out the staff dashboards. The Patient dashboard shows the
// caller's own record and is served by the patient package.
func Boards(n Counts) []Board {
	return []Board{
		{Path: "/admin/dashboard", Title: "Admin dashboard", Op: auth.OpDashboardAdmin, tiles: []tile{
			{"Patients", n.Patients}, {"Appointments", n.Appointments}, {"Doctors", n.Doctors},
			{"Departments", n.Departments}, {"Users", n.Users}, {"Medicines", n.Medicines},
			{"Supplies", n.Supplies}, {"Laboratory tests", n.LabTests}, {"Radiology tests", n.RadiologyTests},
		}},
		{Path: "/supplies/dashboard", Title: "Supplies dashboard", Op: auth.OpDashboardSupplies, tiles: []tile{
			{"Supplies", n.Supplies}, {"Medicines", n.Medicines},
		}},
		{Path: "/doctor/dashboard", Title: "Doctor dashboard", Op: auth.OpDashboardDoctor, tiles: []tile{
			{"Patients", n.Patients}, {"Appointments", n.Appointments},
		}},
		{Path: "/nurse/dashboard", Title: "Nurse dashboard", Op: auth.OpDashboardNurse, tiles: []tile{
			{"Patients", n.Patients},
		}},
		{Path: "/receptionist/dashboard", Title: "Receptionist dashboard", Op: auth.OpDashboardReceptionist, tiles: []tile{
			{"Patients", n.Patients}, {"Appointments", n.Appointments}, {"Doctors", n.Doctors},
		}},
		{Path: "/laboratory/dashboard", Title: "Laboratory dashboard", Op: auth.OpDashboardLaboratory, tiles: []tile{
			{"Laboratory tests", n.LabTests}, {"Patients", n.Patients},
		}},
		{Path: "/radiology/dashboard", Title: "Radiology dashboard", Op: auth.OpDashboardRadiology, tiles: []tile{
			{"Radiology tests", n.RadiologyTests}, {"Patients", n.Patients},
		}},
		{Path: "/pharmacy/dashboard", Title: "Pharmacy dashboard", Op: auth.OpDashboardPharmacy, tiles: []tile{
			{"Medicines", n.Medicines}, {"Patients", n.Patients},
		}},
	}
}

// Dashboards serves the staff dashboards on both the web and the API
// surface.
type Dashboards struct {
	boards []Board
}

func NewDashboards(boards []Board) *Dashboards {
	return &Dashboards{boards: boards}
}

func (d *Dashboards) RegisterRoutes(web, api *echo.Group) {
	for _, b := range d.boards {
		b := b
		guard := auth.RequireOp(b.Op)
		web.GET(b.Path, func(c echo.Context) error { return d.serve(c, b) }, guard)
		api.GET(b.Path, func(c echo.Context) error { return d.serve(c, b) }, guard)
	}
}

func (d *Dashboards) serve(c echo.Context, b Board) error {
	ctx := c.Request().Context()
	counts := make(map[string]int, len(b.tiles))
	view := &render.Dashboard{Links: render.Sections(auth.RoleFromContext(ctx))}
	for _, t := range b.tiles {
		if t.count == nil {
			continue
		}
		n, err := t.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", t.label, err)
		}
		counts[t.label] = n
		view.Counts = append(view.Counts, render.Field{Name: t.label, Value: fmt.Sprint(n)})
	}
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, map[string]interface{}{"dashboard": b.Title, "counts": counts})
	}
	return render.HTML(c, http.StatusOK, "dashboard", &render.Page{Title: b.Title, Data: view})
}
