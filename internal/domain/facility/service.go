package facility

import (
	"context"
	"fmt"

	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

type Service struct {
	depts   DepartmentRepository
	doctors DoctorRepository
	appts   AppointmentRemover
	tx      db.Transactor
}

func NewService(depts DepartmentRepository, doctors DoctorRepository, appts AppointmentRemover, tx db.Transactor) *Service {
	return &Service{depts: depts, doctors: doctors, appts: appts, tx: tx}
}

// -- Department --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if err := validateDepartment(d); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.depts.Create(ctx, d)
	})
}

func (s *Service) GetDepartment(ctx context.Context, id int) (*Department, error) {
	return s.depts.GetByID(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context, page pagination.Params) ([]*Department, int, error) {
	return s.depts.List(ctx, page)
}

// UpdateDepartment overwrites the supplied attributes of department id.
func (s *Service) UpdateDepartment(ctx context.Context, id int, v form.Values) (*Department, error) {
	var d *Department
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.depts.GetByID(ctx, id); err != nil {
			return err
		}
		applyDepartment(v, d)
		if err := validateDepartment(d); err != nil {
			return err
		}
		return s.depts.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDepartment detaches the department's doctors and removes it as one
// unit of work.
func (s *Service) DeleteDepartment(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.depts.GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.doctors.ClearDepartment(ctx, id); err != nil {
			return fmt.Errorf("detach doctors: %w", err)
		}
		return s.depts.Delete(ctx, id)
	})
}

func (s *Service) DepartmentDoctors(ctx context.Context, id int) ([]*Doctor, error) {
	if _, err := s.depts.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.doctors.ListByDepartment(ctx, id)
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.doctors.Create(ctx, d)
	})
}

func (s *Service) GetDoctor(ctx context.Context, id int) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, page pagination.Params) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, page)
}

func (s *Service) UpdateDoctor(ctx context.Context, id int, v form.Values) (*Doctor, error) {
	var d *Doctor
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.doctors.GetByID(ctx, id); err != nil {
			return err
		}
		if err := applyDoctor(v, d); err != nil {
			return err
		}
		if err := validateDoctor(d); err != nil {
			return err
		}
		return s.doctors.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes the doctor's appointments together with the doctor.
func (s *Service) DeleteDoctor(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.doctors.GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.appts.DeleteForDoctor(ctx, id); err != nil {
			return fmt.Errorf("delete appointments: %w", err)
		}
		return s.doctors.Delete(ctx, id)
	})
}

// DoctorName returns the display name of doctor id.
func (s *Service) DoctorName(ctx context.Context, id int) (string, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func (s *Service) CountDepartments(ctx context.Context) (int, error) {
	_, total, err := s.depts.List(ctx, pagination.Params{Limit: 1})
	return total, err
}

func (s *Service) CountDoctors(ctx context.Context) (int, error) {
	_, total, err := s.doctors.List(ctx, pagination.Params{Limit: 1})
	return total, err
}
