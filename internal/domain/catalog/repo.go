package catalog

import (
	"context"

	"github.com/hospital/hms/internal/domain/orders"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/pkg/pagination"
)

// Repository stores one kind of catalog item.
type Repository[T any] interface {
	Create(ctx context.Context, item *T) error
	GetByID(ctx context.Context, id int) (*T, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*T, int, error)
}

// HolderFinder finds the patients whose orders include an item.
type HolderFinder interface {
	Holding(ctx context.Context, k orders.Kind, id string) ([]*patient.Patient, error)
}
