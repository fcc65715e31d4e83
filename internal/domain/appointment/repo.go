package appointment

import (
	"context"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*Appointment, int, error)
	DeleteForDoctor(ctx context.Context, doctorID int) (int64, error)
	DeleteForPatient(ctx context.Context, patientID int) (int64, error)
}

// PatientReader loads the patient embedded in an appointment.
type PatientReader interface {
	Get(ctx context.Context, id int) (*patient.Patient, error)
}
