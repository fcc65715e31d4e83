package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

type Service struct {
	repo     Repository
	sessions SessionRevoker
	tx       db.Transactor
}

func NewService(repo Repository, sessions SessionRevoker, tx db.Transactor) *Service {
	return &Service{repo: repo, sessions: sessions, tx: tx}
}

// Register creates an account. A duplicate email is reported before a
// mismatched confirmation; only the password hash is stored.
func (s *Service) Register(ctx context.Context, r Registration) (*User, error) {
	role, err := auth.ParseRole(r.Role)
	if err != nil {
		return nil, err
	}
	r.Email = normalizeEmail(r.Email)
	if !validEmail(r.Email) {
		return nil, apperr.Validation("email", "must be an email address")
	}
	if _, err := s.repo.GetByEmail(ctx, r.Email); err == nil {
		return nil, apperr.Conflict("email %s is already registered", r.Email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if r.Password != r.ConfirmPassword {
		return nil, apperr.Validation("confirm_password", "passwords do not match")
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}
	u := &User{Name: r.Name, Email: r.Email, Role: role, PasswordHash: hash}
	if r.Phone != "" {
		phone := r.Phone
		u.Phone = &phone
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate returns the user whose password matches. Unknown emails and
// wrong passwords both yield apperr.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		auth.VerifyNoUser(password)
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page pagination.Params) ([]*User, int, error) {
	return s.repo.List(ctx, page)
}

// Update applies an admin edit. The password is changed only when a new
// one is supplied.
func (s *Service) Update(ctx context.Context, id int, v form.Values) (*User, error) {
	var u *User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := apply(v, u); err != nil {
			return err
		}
		if err := validate(u); err != nil {
			return err
		}
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the user and revokes their sessions and tokens together.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.sessions.DeleteForUser(ctx, id); err != nil {
			return fmt.Errorf("revoke credentials: %w", err)
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) Count(ctx context.Context) (int, error) {
	_, total, err := s.repo.List(ctx, pagination.Params{Limit: 1})
	return total, err
}

// CurrentRole implements auth.RoleLookup.
func (s *Service) CurrentRole(ctx context.Context, userID int) (auth.Role, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// EmailOf returns the login email of userID.
func (s *Service) EmailOf(ctx context.Context, userID int) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
