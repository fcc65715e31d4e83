package patient

import (
	"context"

	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*Patient, int, error)
	// GetByEmail returns the first patient whose email matches,
	// case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Patient, error)
}

// DoctorNamer resolves the loose Doctor reference for display.
type DoctorNamer interface {
	DoctorName(ctx context.Context, id int) (string, error)
}

// AppointmentRemover deletes a patient's appointments ahead of the patient.
type AppointmentRemover interface {
	DeleteForPatient(ctx context.Context, patientID int) (int64, error)
}

// UserDirectory looks up the login email of a user account.
type UserDirectory interface {
	EmailOf(ctx context.Context, userID int) (string, error)
}
