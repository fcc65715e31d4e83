package auth

import (
	"strings"

	"github.com/hospital/hms/internal/platform/apperr"
)

// Role is the single canonical set of user roles. Values are the strings
// stored in users.role and in sessions.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleDoctor       Role = "Doctor"
	RoleNurse        Role = "Nurse"
	RoleReceptionist Role = "Receptionist"
	RoleChemist      Role = "Chemist"
	RoleRadiologist  Role = "Radiologist"
	RolePharmacist   Role = "Pharmacist"
	RolePatient      Role = "Patient"
)

var allRoles = []Role{
	RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist,
	RoleChemist, RoleRadiologist, RolePharmacist, RolePatient,
}

// AllRoles returns every role in display order.
func AllRoles() RoleSet {
	out := make(RoleSet, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole is the only conversion from free text to Role. Matching is
// case-insensitive; the canonical spelling is returned.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range allRoles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	if s == "" {
		return "", apperr.Required("Role")
	}
	return "", apperr.Validation("Role", "unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is spelled exactly as one of the canonical roles.
func (r Role) Valid() bool {
	for _, x := range allRoles {
		if r == x {
			return true
		}
	}
	return false
}

// DashboardPath is where a user of this role lands after login.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleDoctor:
		return "/doctor/dashboard"
	case RoleNurse:
		return "/nurse/dashboard"
	case RoleReceptionist:
		return "/receptionist/dashboard"
	case RoleChemist:
		return "/laboratory/dashboard"
	case RoleRadiologist:
		return "/radiology/dashboard"
	case RolePharmacist:
		return "/pharmacy/dashboard"
	case RolePatient:
		return "/patient/dashboard"
	}
	return "/"
}

// RoleSet is an allow-list of roles.
type RoleSet []Role

func Roles(rs ...Role) RoleSet { return RoleSet(rs) }

func (s RoleSet) Contains(r Role) bool {
	for _, x := range s {
		if x == r {
			return true
		}
	}
	return false
}

func (s RoleSet) String() string {
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
