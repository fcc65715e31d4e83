package account

import (
	"context"

	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page pagination.Params) ([]*User, int, error)
}

// SessionRevoker drops every session and bearer token of a user.
type SessionRevoker interface {
	DeleteForUser(ctx context.Context, userID int) error
}
