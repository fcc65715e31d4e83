package catalog

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/internal/platform/render"
	"github.com/hospital/hms/pkg/pagination"
)

// ops are the guarded operations of one catalog section.
type ops struct {
	read, create, update, del auth.Operation
}

// Resource serves one catalog section under its base path.
type Resource[T any] struct {
	svc      *Service[T]
	base     string
	title    string
	singular string
	ops      ops
	inputs   []render.Input
	name     func(*T) string
}

func (r *Resource[T]) RegisterRoutes(web, api *echo.Group) {
	read := auth.RequireOp(r.ops.read)
	create := auth.RequireOp(r.ops.create)
	update := auth.RequireOp(r.ops.update)
	del := auth.RequireOp(r.ops.del)

	for _, g := range []*echo.Group{web, api} {
		g.GET(r.base, r.List, read)
		g.GET(r.base+"/:id", r.Get, read)
		g.GET(r.base+"/:id/patients", r.Holders, read)
		g.POST(r.base, r.Create, create)
	}

	web.GET(r.base+"/new", r.NewForm, create)
	web.GET(r.base+"/:id/edit", r.EditForm, update)
	web.POST(r.base+"/:id", r.Update, update)
	web.POST(r.base+"/:id/delete", r.Delete, del)

	api.PUT(r.base+"/:id", r.Update, update)
	api.DELETE(r.base+"/:id", r.Delete, del)
}

func (r *Resource[T]) can(c echo.Context, op auth.Operation) bool {
	return auth.Can(auth.RoleFromContext(c.Request().Context()), op)
}

func (r *Resource[T]) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := r.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	return render.List(c, r.title, r.base, items, r.can(c, r.ops.create))
}

func (r *Resource[T]) Get(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	item, err := r.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.Detail(c, r.name(item), r.base, item, render.DetailActions{
		CanEdit:   r.can(c, r.ops.update),
		CanDelete: r.can(c, r.ops.del),
		Links:     []render.NavLink{{Label: "Patients with this order", Href: fmt.Sprintf("%s/%d/patients", r.base, id)}},
	})
}

// Holders lists the patients whose orders include the item.
func (r *Resource[T]) Holders(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	patients, err := r.svc.Holders(c.Request().Context(), id)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Patients ordered %s %d", r.singular, id)
	return render.List(c, title, "/patients", patients, false)
}

func (r *Resource[T]) NewForm(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "New " + r.singular,
		Data:  &render.FormView{Action: r.base, Submit: "Create", Inputs: r.inputs},
	})
}

func (r *Resource[T]) EditForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	item, err := r.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit " + r.singular,
		Data: &render.FormView{
			Action: fmt.Sprintf("%s/%d", r.base, id),
			Submit: "Save",
			Inputs: render.Prefill(r.inputs, item),
		},
	})
}

func (r *Resource[T]) Create(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	item, err := r.svc.Create(c.Request().Context(), v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusCreated, item, r.base, fmt.Sprintf("%s %q added", r.singular, r.name(item)))
}

func (r *Resource[T]) Update(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	item, err := r.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, item, fmt.Sprintf("%s/%d", r.base, id), fmt.Sprintf("%s %q updated", r.singular, r.name(item)))
}

func (r *Resource[T]) Delete(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := r.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, r.base, r.singular+" deleted")
}

// Handler serves the four catalog sections.
type Handler struct {
	Medicines      *Resource[Medicine]
	Supplies       *Resource[Supply]
	LabTests       *Resource[LabTest]
	RadiologyTests *Resource[RadiologyTest]
}

func NewHandler(meds *Service[Medicine], supplies *Service[Supply], labs *Service[LabTest], rads *Service[RadiologyTest]) *Handler {
	return &Handler{
		Medicines: &Resource[Medicine]{
			svc: meds, base: "/pharmacy", title: "Pharmacy", singular: "medicine",
			ops: ops{auth.OpPharmacyRead, auth.OpPharmacyCreate, auth.OpPharmacyUpdate, auth.OpPharmacyDelete},
			inputs: []render.Input{
				{Name: "MedicineName", Label: "Medicine name", Type: "text", Required: true},
				{Name: "UnitPrice", Label: "Unit price", Type: "number"},
				{Name: "Quantity", Label: "Quantity", Type: "number"},
			},
			name: func(m *Medicine) string { return m.MedicineName },
		},
		Supplies: &Resource[Supply]{
			svc: supplies, base: "/supplies", title: "Supplies", singular: "supply",
			ops: ops{auth.OpSuppliesRead, auth.OpSuppliesWrite, auth.OpSuppliesWrite, auth.OpSuppliesWrite},
			inputs: []render.Input{
				{Name: "ItemName", Label: "Item name", Type: "text", Required: true},
				{Name: "Quantity", Label: "Quantity", Type: "number", Required: true},
				{Name: "UnitPrice", Label: "Unit price", Type: "number", Required: true},
			},
			name: func(s *Supply) string { return s.ItemName },
		},
		LabTests: &Resource[LabTest]{
			svc: labs, base: "/laboratory", title: "Laboratory", singular: "laboratory test",
			ops: ops{auth.OpLaboratoryRead, auth.OpLaboratoryWrite, auth.OpLaboratoryWrite, auth.OpLaboratoryWrite},
			inputs: []render.Input{
				{Name: "TestName", Label: "Test name", Type: "text", Required: true},
				{Name: "Description", Label: "Description", Type: "textarea"},
				{Name: "Price", Label: "Price", Type: "number"},
			},
			name: func(t *LabTest) string { return t.TestName },
		},
		RadiologyTests: &Resource[RadiologyTest]{
			svc: rads, base: "/radiology", title: "Radiology", singular: "radiology test",
			ops: ops{auth.OpRadiologyRead, auth.OpRadiologyWrite, auth.OpRadiologyWrite, auth.OpRadiologyWrite},
			inputs: []render.Input{
				{Name: "TestName", Label: "Test name", Type: "text", Required: true},
				{Name: "Description", Label: "Description", Type: "textarea"},
				{Name: "Price", Label: "Price", Type: "number"},
			},
			name: func(t *RadiologyTest) string { return t.TestName },
		},
	}
}

func (h *Handler) RegisterRoutes(web, api *echo.Group) {
	h.Medicines.RegisterRoutes(web, api)
	h.Supplies.RegisterRoutes(web, api)
	h.LabTests.RegisterRoutes(web, api)
	h.RadiologyTests.RegisterRoutes(web, api)
}
