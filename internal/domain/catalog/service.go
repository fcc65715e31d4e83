package catalog

import (
	"context"

	"github.com/hospital/hms/internal/domain/orders"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

// rules are the per-type attribute handling of a catalog item.
type rules[T any] struct {
	kind     orders.Kind
	apply    func(form.Values, *T) error
	validate func(*T) error
}

var (
	medicineRules      = rules[Medicine]{orders.Medicines, applyMedicine, validateMedicine}
	supplyRules        = rules[Supply]{orders.Supplies, applySupply, validateSupply}
	labTestRules       = rules[LabTest]{orders.LabTests, applyLabTest, validateLabTest}
	radiologyTestRules = rules[RadiologyTest]{orders.RadiologyTests, applyRadiologyTest, validateRadiologyTest}
)

// Service manages one kind of catalog item.
type Service[T any] struct {
	repo    Repository[T]
	holders HolderFinder
	tx      db.Transactor
	rules   rules[T]
}

func NewMedicineService(repo Repository[Medicine], holders HolderFinder, tx db.Transactor) *Service[Medicine] {
	return &Service[Medicine]{repo: repo, holders: holders, tx: tx, rules: medicineRules}
}

func NewSupplyService(repo Repository[Supply], holders HolderFinder, tx db.Transactor) *Service[Supply] {
	return &Service[Supply]{repo: repo, holders: holders, tx: tx, rules: supplyRules}
}

func NewLabTestService(repo Repository[LabTest], holders HolderFinder, tx db.Transactor) *Service[LabTest] {
	return &Service[LabTest]{repo: repo, holders: holders, tx: tx, rules: labTestRules}
}

func NewRadiologyTestService(repo Repository[RadiologyTest], holders HolderFinder, tx db.Transactor) *Service[RadiologyTest] {
	return &Service[RadiologyTest]{repo: repo, holders: holders, tx: tx, rules: radiologyTestRules}
}

func (s *Service[T]) Create(ctx context.Context, v form.Values) (*T, error) {
	item := new(T)
	if err := s.rules.apply(v, item); err != nil {
		return nil, err
	}
	if err := s.rules.validate(item); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service[T]) Get(ctx context.Context, id int) (*T, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service[T]) List(ctx context.Context, page pagination.Params) ([]*T, int, error) {
	return s.repo.List(ctx, page)
}

// Update overwrites the supplied attributes of item id.
func (s *Service[T]) Update(ctx context.Context, id int, v form.Values) (*T, error) {
	var item *T
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.rules.apply(v, item); err != nil {
			return err
		}
		if err := s.rules.validate(item); err != nil {
			return err
		}
		return s.repo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service[T]) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

// Holders returns the patients whose orders include item id.
func (s *Service[T]) Holders(ctx context.Context, id int) ([]*patient.Patient, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.holders.Holding(ctx, s.rules.kind, orders.IDString(id))
}

func (s *Service[T]) Count(ctx context.Context) (int, error) {
	_, total, err := s.repo.List(ctx, pagination.Params{Limit: 1})
	return total, err
}
