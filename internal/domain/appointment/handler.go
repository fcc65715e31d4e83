package appointment

import (
	"fmt"
	"net/http"
	"time"

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

func (h *Handler) RegisterRoutes(web, api *echo.Group) {
	read := auth.RequireOp(auth.OpAppointmentsRead)
	create := auth.RequireOp(auth.OpAppointmentsCreate)
	update := auth.RequireOp(auth.OpAppointmentsUpdate)
	del := auth.RequireOp(auth.OpAppointmentsDelete)

	for _, g := range []*echo.Group{web, api} {
		g.GET("/appointments", h.List, read)
		g.GET("/appointments/:id", h.Get, read)
		g.POST("/appointments", h.Create, create)
	}

	web.GET("/appointments/new", h.NewForm, create)
	web.GET("/appointments/:id/edit", h.EditForm, update)
	web.POST("/appointments/:id", h.Update, update)
	web.POST("/appointments/:id/delete", h.Delete, del)

	api.GET("/appointments/:id/countdown", h.Countdown, read)
	api.PUT("/appointments/:id", h.Update, update)
	api.DELETE("/appointments/:id", h.Delete, del)
}

var inputs = []render.Input{
	{Name: "PatientID", Label: "Patient ID", Type: "number", Required: true},
	{Name: "DoctorID", Label: "Doctor ID", Type: "number", Required: true},
	{Name: "AppointmentDate", Label: "Date and time", Type: "datetime-local", Required: true},
	{Name: "QueueNumber", Label: "Queue number", Type: "number"},
	{Name: "AvailableSlots", Label: "Available slots", Type: "number"},
}

// row is the browser list view of an appointment.
type row struct {
	AppointmentID   int       `json:"AppointmentID"`
	Patient         string    `json:"Patient"`
	DoctorID        int       `json:"DoctorID"`
	AppointmentDate time.Time `json:"Date"`
	QueueNumber     *int      `json:"Queue"`
	AvailableSlots  *int      `json:"Slots"`
	Status          string    `json:"Status"`
	Remaining       string    `json:"Remaining"`
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	appts, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	if auth.IsAPIRequest(c) {
		return c.JSON(http.StatusOK, appts)
	}

	rows := make([]row, 0, len(appts))
	for _, a := range appts {
		r := h.svc.remaining(a)
		name := ""
		if a.Patient != nil {
			name = a.Patient.Name
		}
		rows = append(rows, row{
			AppointmentID:   a.AppointmentID,
			Patient:         name,
			DoctorID:        a.DoctorID,
			AppointmentDate: a.AppointmentDate,
			QueueNumber:     a.QueueNumber,
			AvailableSlots:  a.AvailableSlots,
			Status:          r.Status,
			Remaining:       r.Display,
		})
	}
	role := auth.RoleFromContext(c.Request().Context())
	return render.List(c, "Appointments", "/appointments", rows, auth.Can(role, auth.OpAppointmentsCreate))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	r := h.svc.remaining(a)
	role := auth.RoleFromContext(c.Request().Context())
	return render.Detail(c, fmt.Sprintf("Appointment %d", a.AppointmentID), "/appointments", a, render.DetailActions{
		CanEdit:   auth.Can(role, auth.OpAppointmentsUpdate),
		CanDelete: auth.Can(role, auth.OpAppointmentsDelete),
		Extra: []render.Field{
			{Name: "Status", Value: r.Status},
			{Name: "Remaining", Value: r.Display},
		},
	})
}

// Countdown reports the time left until an appointment.
func (h *Handler) Countdown(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	a, r, err := h.svc.Remaining(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"AppointmentID":   a.AppointmentID,
		"AppointmentDate": a.AppointmentDate,
		"status":          r.Status,
		"remaining":       r.Display,
	})
}

func (h *Handler) NewForm(c echo.Context) error {
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "New appointment",
		Data:  &render.FormView{Action: "/appointments", Submit: "Book", Inputs: inputs},
	})
}

func (h *Handler) EditForm(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render.HTML(c, http.StatusOK, "form", &render.Page{
		Title: "Edit appointment",
		Data: &render.FormView{
			Action: fmt.Sprintf("/appointments/%d", id),
			Submit: "Save",
			Inputs: render.Prefill(inputs, a),
		},
	})
}

func (h *Handler) Create(c echo.Context) error {
	v, err := form.Parse(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusCreated, a, "/appointments", "Appointment added successfully")
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
	a, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return err
	}
	return render.Saved(c, http.StatusOK, a, "/appointments", "Appointment updated successfully")
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := form.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return render.Deleted(c, "/appointments", "Appointment deleted successfully")
}
