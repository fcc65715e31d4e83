package auth

import (
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Admin", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{" Pharmacist ", RolePharmacist, false},
		{"Patient", RolePatient, false},
		{"Janitor", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range AllRoles() {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if Role("admin").Valid() {
		t.Error("expected non-canonical spelling to be invalid")
	}
	if len(AllRoles()) != 8 {
		t.Errorf("expected 8 roles, got %d", len(AllRoles()))
	}
}

func TestRole_DashboardPath(t *testing.T) {
	if RoleChemist.DashboardPath() != "/laboratory/dashboard" {
		t.Errorf("unexpected chemist dashboard: %s", RoleChemist.DashboardPath())
	}
	if Role("").DashboardPath() != "/" {
		t.Errorf("expected / for unknown role")
	}
	seen := map[string]bool{}
	for _, r := range AllRoles() {
		p := r.DashboardPath()
		if seen[p] {
			t.Errorf("dashboard %s shared by more than one role", p)
		}
		seen[p] = true
	}
}

func TestRoleSet(t *testing.T) {
	s := Roles(RoleAdmin, RoleReceptionist)
	if !s.Contains(RoleReceptionist) || s.Contains(RoleDoctor) {
		t.Errorf("unexpected membership for %v", s)
	}
	if s.String() != "Admin or Receptionist" {
		t.Errorf("unexpected String(): %s", s.String())
	}
}
