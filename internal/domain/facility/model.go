package facility

import (
	"strings"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/form"
)

type Department struct {
	DepartmentID   int    `json:"DepartmentID"`
	DepartmentName string `json:"DepartmentName"`
}

type Doctor struct {
	DoctorID         int     `json:"DoctorID"`
	Name             string  `json:"Name"`
	Age              *int    `json:"Age"`
	ScientificDegree *string `json:"ScientificDegree"`
	Specialist       *string `json:"Specialist"`
	DepartmentID     *int    `json:"DepartmentID"`
	Phone            *string `json:"Phone"`
	Email            *string `json:"Email"`
}

// applyDepartment overwrites the attributes present in v.
func applyDepartment(v form.Values, d *Department) {
	if s := v.String("DepartmentName"); s != nil {
		d.DepartmentName = *s
	}
}

// applyDoctor overwrites the attributes present in v. An empty
// DepartmentID detaches the doctor from their department.
func applyDoctor(v form.Values, d *Doctor) error {
	if s := v.String("Name"); s != nil {
		d.Name = *s
	}
	if v.Has("Age") {
		age, err := v.Int("Age")
		if err != nil {
			return err
		}
		d.Age = age
	}
	if s := v.String("ScientificDegree"); s != nil {
		d.ScientificDegree = s
	}
	if s := v.String("Specialist"); s != nil {
		d.Specialist = s
	}
	if v.Has("DepartmentID") {
		dep, err := v.Int("DepartmentID")
		if err != nil {
			return err
		}
		d.DepartmentID = dep
	}
	if s := v.String("Phone"); s != nil {
		d.Phone = s
	}
	if s := v.String("Email"); s != nil {
		d.Email = s
	}
	return nil
}

func validateDepartment(d *Department) error {
	d.DepartmentName = strings.TrimSpace(d.DepartmentName)
	if d.DepartmentName == "" {
		return apperr.Required("DepartmentName")
	}
	return nil
}

func validateDoctor(d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Required("Name")
	}
	if d.Age != nil && (*d.Age < 0 || *d.Age > 150) {
		return apperr.Validation("Age", "must be between 0 and 150")
	}
	if d.Email != nil && *d.Email != "" && !strings.Contains(*d.Email, "@") {
		return apperr.Validation("Email", "must be an email address")
	}
	return nil
}
