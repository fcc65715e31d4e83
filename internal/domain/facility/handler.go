package facility

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/internal/platform/render"
	"github.com/hospital/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the browser pages on web and the JSON endpoints on
// api. Reads are open to all staff, writes to Admin only.
func (h *Handler) RegisterRoutes(web, api *echo.Group) {
	read := auth.RequireOp(auth.OpFacilityRead)
	write := auth.RequireOp(auth.OpFacilityWrite)

	for _, g := range []*echo.Group{web, api} {
		g.GET("/departments", h.ListDepartments, read)
		g.GET("/departments/:id", h.GetDepartment, read)
		g.POST("/departments", h.CreateDepartment, write)
		g.GET("/doctors", h.ListDoctors, read)
		g.GET("/doctors/:id", h.GetDoctor, read)
		g.POST("/doctors", h.CreateDoctor, write)
	}

	web.GET("/departments/new", h.NewDepartmentForm, write)
	web.GET("/departments/:id/edit", h.EditDepartmentForm, write)
	web.POST("/departments/:id", h.UpdateDepartment, write)
	web.POST("/departments/:id/delete", h.DeleteDepartment, write)
	web.GET("/doctors/new", h.NewDoctorForm, write)
	web.GET("/doctors/:id/edit", h.EditDoctorForm, write)
	web.POST("/doctors/:id", h.UpdateDoctor, write)
	web.POST("/doctors/:id/delete", h.DeleteDoctor, write)

	api.GET("/departments/:id/doctors", h.ListDepartmentDoctors, read)
	api.PUT("/departments/:id", h.UpdateDepartment, write)
	api.DELETE("/departments/:id", h.DeleteDepartment, write)
	api.PUT("/doctors/:id", h.UpdateDoctor, write)
	api.DELETE("/doctors/:id", h.DeleteDoctor, write)
}

func canWrite(c echo.Context) bool {
	return auth.Can(auth.RoleFromContext(c.Request().Context()), auth.OpFacilityWrite)
}

// -- Department Handlers --

var departmentInputs = []render.Input{
	{Name: "DepartmentName", Label: "Department name", Type: "text", Required: true},
}

func (h *Handler) ListDepartments(c echo.Context) error {
	p := pagination.FromContext(c)
	depts, total, err := h.svc.ListDepartments(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	return render.List(c, "Departments", "/departments", depts, canWrite(c))
}

func (h *Handler) GetDepartment(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.GetDepartment(ctx, id)
	if err != nil {
		return err
	}
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, d)
	}

	docs, err := h.svc.DepartmentDoctors(ctx, id)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
	}
	return render.Detail(c, d.DepartmentName, "/departments", d, render.DetailActions{
		CanEdit:   canWrite(c),
		CanDelete: canWrite(c),
		Extra:     []render.Field{{Name: "Doctors", Value: strings.Join(names, ", ")}},
	})
}

func (h *Handler) ListDepartmentDoctors(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	docs, err := h.svc.DepartmentDoctors(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) NewDepartmentForm(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "New department",
		Data:  &render.FormView{Action: "/departments", Submit: "Create", Inputs: departmentInputs},
	})
}

func (h *Handler) EditDepartmentForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDepartment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit department",
		Data: &render.FormView{
			Action: fmt.Sprintf("/departments/%d", id),
			Submit: "Save",
			Inputs: render.Prefill(departmentInputs, d),
		},
	})
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	var d Department
	applyDepartment(v, &d)
	if err := h.svc.CreateDepartment(c.Request().Context(), &d); err != nil {
		return err
	}
	return render.Saved(c, http.StatusCreated, &d, fmt.Sprintf("/departments/%d", d.DepartmentID), "Department created")
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	d, err := h.svc.UpdateDepartment(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, d, fmt.Sprintf("/departments/%d", id), "Department updated")
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, "/departments", "Department deleted")
}

// -- Doctor Handlers --

var doctorInputs = []render.Input{
	{Name: "Name", Label: "Name", Type: "text", Required: true},
	{Name: "Age", Label: "Age", Type: "number"},
	{Name: "ScientificDegree", Label: "Scientific degree", Type: "text"},
	{Name: "Specialist", Label: "Specialty", Type: "text"},
	{Name: "DepartmentID", Label: "Department ID", Type: "number"},
	{Name: "Phone", Label: "Phone", Type: "text"},
	{Name: "Email", Label: "Email", Type: "email"},
}

func (h *Handler) ListDoctors(c echo.Context) error {
	p := pagination.FromContext(c)
	docs, total, err := h.svc.ListDoctors(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	return render.List(c, "Doctors", "/doctors", docs, canWrite(c))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.Detail(c, d.Name, "/doctors", d, render.DetailActions{
		CanEdit:   canWrite(c),
		CanDelete: canWrite(c),
	})
}

func (h *Handler) NewDoctorForm(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "New doctor",
		Data:  &render.FormView{Action: "/doctors", Submit: "Create", Inputs: doctorInputs},
	})
}

func (h *Handler) EditDoctorForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit doctor",
		Data: &render.FormView{
			Action: fmt.Sprintf("/doctors/%d", id),
			Submit: "Save",
			Inputs: render.Prefill(doctorInputs, d),
		},
	})
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := applyDoctor(v, &d); err != nil {
		return err
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), &d); err != nil {
		return err
	}
	return render.Saved(c, http.StatusCreated, &d, fmt.Sprintf("/doctors/%d", d.DoctorID), "Doctor created")
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, d, fmt.Sprintf("/doctors/%d", id), "Doctor updated")
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, "/doctors", "Doctor deleted")
}
