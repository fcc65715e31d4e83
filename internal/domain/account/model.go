// Package account owns user accounts: registration, login and logout, the
// admin user screens and the per-role dashboards.
package account

import (
	"strings"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/form"
)

type User struct {
	UserID       int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone"`
	Role         auth.Role `json:"role"`
	PasswordHash string    `json:"-"`
}

// Claims is the session snapshot of u.
func (u *User) Claims() auth.Claims {
	return auth.Claims{UserID: u.UserID, Role: u.Role, Name: u.Name}
}

// Registration is a sign-up request.
type Registration struct {
	Name            string
	Email           string
	Phone           string
	Role            string
	Password        string
	ConfirmPassword string
}

// registrationFields are checked in this order; the first missing one is
// reported.
var registrationFields = []string{"name", "email", "role", "password", "confirm_password"}

func RegistrationFrom(v form.Values) (Registration, error) {
	for _, k := range registrationFields {
		if _, err := v.Required(k); err != nil {
			return Registration{}, err
		}
	}
	r := Registration{
		Name:            strings.TrimSpace(v["name"]),
		Email:           normalizeEmail(v["email"]),
		Phone:           strings.TrimSpace(v["phone"]),
		Role:            v["role"],
		Password:        v["password"],
		ConfirmPassword: v["confirm_password"],
	}
	return r, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}

// apply overwrites the supplied attributes of u. A non-empty password is
// re-hashed; an empty one leaves the hash unchanged.
func apply(v form.Values, u *User) error {
	if s := v.String("name"); s != nil {
		u.Name = strings.TrimSpace(*s)
	}
	if s := v.String("email"); s != nil {
		u.Email = normalizeEmail(*s)
	}
	if s := v.String("phone"); s != nil {
		if p := strings.TrimSpace(*s); p != "" {
			u.Phone = &p
		} else {
			u.Phone = nil
		}
	}
	if s := v.String("role"); s != nil {
		role, err := auth.ParseRole(*s)
		if err != nil {
			return err
		}
		u.Role = role
	}
	if pw := v["password"]; pw != "" {
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func validate(u *User) error {
	if u.Name == "" {
		return apperr.Required("name")
	}
	if u.Email == "" {
		return apperr.Required("email")
	}
	if !validEmail(u.Email) {
		return apperr.Validation("email", "must be an email address")
	}
	if !u.Role.Valid() {
		return apperr.Validation("role", "unknown role %q", u.Role)
	}
	return nil
}
