package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/hospital/hms/internal/domain/orders"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

type Service struct {
	repo    Repository
	doctors DoctorNamer
	appts   AppointmentRemover
	users   UserDirectory
	tx      db.Transactor
}

func NewService(repo Repository, doctors DoctorNamer, appts AppointmentRemover, users UserDirectory, tx db.Transactor) *Service {
	return &Service{repo: repo, doctors: doctors, appts: appts, users: users, tx: tx}
}

// Create stores a new patient from the supplied attributes. The orders
// text is always written in its complete form.
func (s *Service) Create(ctx context.Context, v form.Values) (*Patient, error) {
	p := &Patient{}
	if err := apply(v, p); err != nil {
		return nil, err
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetDetail returns the patient with DoctorName set when the Doctor
// reference resolves. A dangling reference is not an error.
func (s *Service) GetDetail(ctx context.Context, id int) (*Detail, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}

func (s *Service) detail(ctx context.Context, p *Patient) (*Detail, error) {
	d := &Detail{Patient: p}
	if p.Doctor == nil || s.doctors == nil {
		return d, nil
	}
	name, err := s.doctors.DoctorName(ctx, *p.Doctor)
	switch {
	case err == nil:
		d.DoctorName = &name
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("resolve doctor %d: %w", *p.Doctor, err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, page pagination.Params) ([]*Patient, int, error) {
	return s.repo.List(ctx, page)
}

// Update overwrites the supplied attributes of patient id.
func (s *Service) Update(ctx context.Context, id int, v form.Values) (*Patient, error) {
	var p *Patient
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := apply(v, p); err != nil {
			return err
		}
		if err := validate(p); err != nil {
			return err
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the patient and their appointments together.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.appts.DeleteForPatient(ctx, id); err != nil {
			return fmt.Errorf("delete appointments: %w", err)
		}
		return s.repo.Delete(ctx, id)
	})
}

// Holding returns every patient whose orders include item id of kind k,
// in id order. Patients with unreadable orders are skipped.
func (s *Service) Holding(ctx context.Context, k orders.Kind, id string) ([]*Patient, error) {
	all, _, err := s.repo.List(ctx, pagination.Params{})
	if err != nil {
		return nil, err
	}
	holders := []*Patient{}
	for _, p := range all {
		if orders.Holds(p.DoctorOrders, k, id) {
			holders = append(holders, p)
		}
	}
	return holders, nil
}

// Count returns the number of patients.
func (s *Service) Count(ctx context.Context) (int, error) {
	_, total, err := s.repo.List(ctx, pagination.Params{Limit: 1})
	return total, err
}

// ForUser returns the patient record of a Patient-role account, matched by
// the account's email.
func (s *Service) ForUser(ctx context.Context, userID int) (*Detail, error) {
	email, err := s.users.EmailOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("patient record: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}
