package appointment

import (
	"time"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/form"
)

// Appointment books a patient with a doctor. Several appointments may share
// a doctor and a time.
type Appointment struct {
	AppointmentID   int              `json:"AppointmentID"`
	PatientID       int              `json:"PatientID"`
	DoctorID        int              `json:"DoctorID"`
	AppointmentDate time.Time        `json:"AppointmentDate"`
	QueueNumber     *int             `json:"QueueNumber"`
	AvailableSlots  *int             `json:"AvailableSlots"`
	Patient         *patient.Patient `json:"patient"`
}

// formAliases are the field names used by the appointment booking form.
var formAliases = map[string]string{
	"patient_id":      "PatientID",
	"doctor_id":       "DoctorID",
	"date":            "AppointmentDate",
	"queue_number":    "QueueNumber",
	"available_slots": "AvailableSlots",
}

func normalize(v form.Values) {
	for alias, key := range formAliases {
		if s, ok := v[alias]; ok && !v.Has(key) {
			v[key] = s
		}
	}
}

// apply overwrites the attributes present in v.
func apply(v form.Values, a *Appointment) error {
	normalize(v)
	if v.Has("PatientID") {
		id, err := v.Int("PatientID")
		if err != nil {
			return err
		}
		a.PatientID = 0
		if id != nil {
			a.PatientID = *id
		}
	}
	if v.Has("DoctorID") {
		id, err := v.Int("DoctorID")
		if err != nil {
			return err
		}
		a.DoctorID = 0
		if id != nil {
			a.DoctorID = *id
		}
	}
	if v.Has("AppointmentDate") {
		t, err := v.Time("AppointmentDate")
		if err != nil {
			return err
		}
		a.AppointmentDate = time.Time{}
		if t != nil {
			a.AppointmentDate = *t
		}
	}
	var err error
	if v.Has("QueueNumber") {
		if a.QueueNumber, err = v.Int("QueueNumber"); err != nil {
			return err
		}
	}
	if v.Has("AvailableSlots") {
		if a.AvailableSlots, err = v.Int("AvailableSlots"); err != nil {
			return err
		}
	}
	return nil
}

func validate(a *Appointment) error {
	if a.PatientID <= 0 {
		return apperr.Required("PatientID")
	}
	if a.DoctorID <= 0 {
		return apperr.Required("DoctorID")
	}
	if a.AppointmentDate.IsZero() {
		return apperr.Required("AppointmentDate")
	}
	if a.QueueNumber != nil && *a.QueueNumber < 0 {
		return apperr.Validation("QueueNumber", "must not be negative")
	}
	if a.AvailableSlots != nil && *a.AvailableSlots < 0 {
		return apperr.Validation("AvailableSlots", "must not be negative")
	}
	return nil
}
