package facility

import (
	"context"

	"github.com/hospital/hms/pkg/pagination"
)

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id int) (*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*Department, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*Doctor, int, error)
	ListByDepartment(ctx context.Context, departmentID int) ([]*Doctor, error)
	// ClearDepartment detaches every doctor from the department.
	ClearDepartment(ctx context.Context, departmentID int) (int64, error)
}

// AppointmentRemover deletes a doctor's appointments ahead of the doctor.
type AppointmentRemover interface {
	DeleteForDoctor(ctx context.Context, doctorID int) (int64, error)
}
