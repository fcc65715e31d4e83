package patient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/domain/orders"
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

func (h *Handler) RegisterRoutes(web, api *echo.Group) {
	read := auth.RequireOp(auth.OpPatientsRead)
	create := auth.RequireOp(auth.OpPatientsCreate)
	update := auth.RequireOp(auth.OpPatientsUpdate)
	del := auth.RequireOp(auth.OpPatientsDelete)
	dashboard := auth.RequireOp(auth.OpDashboardPatient)

	for _, g := range []*echo.Group{web, api} {
		g.GET("/patients", h.List, read)
		g.GET("/patients/:id", h.Get, read)
		g.POST("/patients", h.Create, create)
	}

	web.GET("/patients/new", h.NewForm, create)
	web.GET("/patients/:id/edit", h.EditForm, update)
	web.POST("/patients/:id", h.Update, update)
	web.POST("/patients/:id/delete", h.Delete, del)
	web.GET("/patient/dashboard", h.Dashboard, dashboard)

	api.PUT("/patients/:id", h.Update, update)
	api.DELETE("/patients/:id", h.Delete, del)
	api.GET("/auth/patient-dashboard", h.Dashboard, dashboard)
	api.GET("/patient/dashboard", h.Dashboard, dashboard)
}

var inputs = []render.Input{
	{Name: "Name", Label: "Name", Type: "text", Required: true},
	{Name: "NationalID", Label: "National ID", Type: "text"},
	{Name: "Age", Label: "Age", Type: "number"},
	{Name: "Gender", Label: "Gender", Type: "select", Options: append([]string{""}, genders...)},
	{Name: "BloodType", Label: "Blood type", Type: "select", Options: append([]string{""}, bloodTypes...)},
	{Name: "Weight", Label: "Weight (kg)", Type: "number"},
	{Name: "Height", Label: "Height (cm)", Type: "number"},
	{Name: "Address", Label: "Address", Type: "text"},
	{Name: "Phone", Label: "Phone", Type: "text"},
	{Name: "Email", Label: "Email", Type: "email"},
	{Name: "Doctor", Label: "Doctor ID", Type: "number"},
	{Name: "Date_admission", Label: "Admission", Type: "datetime-local"},
	{Name: "Date_discharge", Label: "Discharge", Type: "datetime-local"},
	{Name: "Diagnose", Label: "Diagnosis", Type: "text"},
	{Name: "MedicalNotes", Label: "Medical notes", Type: "textarea"},
	{Name: "Report", Label: "Report", Type: "textarea"},
	{Name: "selectedSupplies", Label: "Supply ids (comma separated)", Type: "text"},
	{Name: "selectedMedicines", Label: "Medicine ids (comma separated)", Type: "text"},
	{Name: "medicineDosageInstructions", Label: "Dosage instructions", Type: "textarea"},
	{Name: "selectedLabTests", Label: "Lab test ids (comma separated)", Type: "text"},
	{Name: "labtestNotes", Label: "Lab test notes", Type: "textarea"},
	{Name: "selectedRadiologyTests", Label: "Radiology test ids (comma separated)", Type: "text"},
	{Name: "radiologyNotes", Label: "Radiology notes", Type: "textarea"},
}

// orderInputs maps the stored orders back onto the order form fields.
func orderInputs(in []render.Input, p *Patient) []render.Input {
	o, ok := orders.Decode(p.DoctorOrders)
	if !ok {
		return in
	}
	values := map[string]string{
		dosageKey:         o.DosageInstructions,
		labNotesKey:       o.LabTestNotes,
		radiologyNotesKey: o.RadiologyNotes,
	}
	for k, key := range selectionKeys {
		values[key] = idList(o.List(k))
	}
	for i := range in {
		if v, ok := values[in[i].Name]; ok {
			in[i].Value = v
		}
	}
	return in
}

func idList(items []orders.Item) string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return strings.Join(ids, ", ")
}

func ordersSummary(p *Patient) []render.Field {
	o, ok := orders.Decode(p.DoctorOrders)
	if !ok {
		return nil
	}
	return []render.Field{
		{Name: "Supplies ordered", Value: idList(o.Supplies)},
		{Name: "Medicines ordered", Value: idList(o.Medicines)},
		{Name: "Dosage instructions", Value: o.DosageInstructions},
		{Name: "Lab tests ordered", Value: idList(o.LabTests)},
		{Name: "Lab test notes", Value: o.LabTestNotes},
		{Name: "Radiology tests ordered", Value: idList(o.RadiologyTests)},
		{Name: "Radiology notes", Value: o.RadiologyNotes},
	}
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	role := auth.RoleFromContext(c.Request().Context())
	return render.List(c, "Patients", "/patients", patients, auth.Can(role, auth.OpPatientsCreate))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	role := auth.RoleFromContext(c.Request().Context())
	return render.Detail(c, d.Name, "/patients", d, render.DetailActions{
		CanEdit:   auth.Can(role, auth.OpPatientsUpdate),
		CanDelete: auth.Can(role, auth.OpPatientsDelete),
		Extra:     ordersSummary(d.Patient),
	})
}

func (h *Handler) NewForm(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "New patient",
		Data:  &render.FormView{Action: "/patients", Submit: "Create", Inputs: inputs},
	})
}

func (h *Handler) EditForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit patient",
		Data: &render.FormView{
			Action: fmt.Sprintf("/patients/%d", id),
			Submit: "Save",
			Inputs: orderInputs(render.Prefill(inputs, p), p),
		},
	})
}

func (h *Handler) Create(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusCreated, p, fmt.Sprintf("/patients/%d", p.PatientID), "Patient added successfully")
}

func (h *Handler) Update(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, p, fmt.Sprintf("/patients/%d", id), "Patient updated successfully")
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, "/patients", "Patient deleted successfully")
}

// Dashboard shows a Patient-role user their own record.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.ForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"patient": d,
			"message": "Patient dashboard data retrieved successfully",
		})
	}
	return render.Detail(c, "My record", "/patient/dashboard", d, render.DetailActions{Extra: ordersSummary(d.Patient)})
}
