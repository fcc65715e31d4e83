package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

type Service struct {
	repo     Repository
	patients PatientReader
	tx       db.Transactor
	now      func() time.Time
}

func NewService(repo Repository, patients PatientReader, tx db.Transactor) *Service {
	return &Service{repo: repo, patients: patients, tx: tx, now: time.Now}
}

// patientFor loads the booked patient. A missing patient is the caller's
// input error, not a missing appointment.
func (s *Service) patientFor(ctx context.Context, id int) (*patient.Patient, error) {
	p, err := s.patients.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("PatientID", "no patient with id %d", id)
	}
	return p, err
}

func (s *Service) Create(ctx context.Context, v form.Values) (*Appointment, error) {
	a := &Appointment{}
	if err := apply(v, a); err != nil {
		return nil, err
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.patientFor(ctx, a.PatientID)
		if err != nil {
			return err
		}
		a.Patient = p
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, []*Appointment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, page pagination.Params) ([]*Appointment, int, error) {
	appts, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attach(ctx, appts); err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

// attach embeds each appointment's patient, loading each patient once.
func (s *Service) attach(ctx context.Context, appts []*Appointment) error {
	seen := make(map[int]*patient.Patient)
	for _, a := range appts {
		p, ok := seen[a.PatientID]
		if !ok {
			var err error
			p, err = s.patients.Get(ctx, a.PatientID)
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("load patient %d: %w", a.PatientID, err)
			}
			seen[a.PatientID] = p
		}
		a.Patient = p
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int, v form.Values) (*Appointment, error) {
	var a *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := apply(v, a); err != nil {
			return err
		}
		if err := validate(a); err != nil {
			return err
		}
		if a.Patient, err = s.patientFor(ctx, a.PatientID); err != nil {
			return err
		}
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

// Remaining reports how long until appointment id, measured against the
// local wall clock.
func (s *Service) Remaining(ctx context.Context, id int) (*Appointment, Remaining, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, Remaining{}, err
	}
	return a, s.remaining(a), nil
}

func (s *Service) remaining(a *Appointment) Remaining {
	return Countdown(wallClock(a.AppointmentDate), s.now())
}

func (s *Service) Count(ctx context.Context) (int, error) {
	_, total, err := s.repo.List(ctx, pagination.Params{Limit: 1})
	return total, err
}
