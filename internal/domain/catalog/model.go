// Package catalog holds the orderable items: pharmacy medicines, supplies,
// laboratory tests and radiology tests. Patients reference them only through
// their DoctorOrders text.
package catalog

import (
	"strings"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/form"
)

type Medicine struct {
	MedicineID   int      `json:"MedicineID"`
	MedicineName string   `json:"MedicineName"`
	UnitPrice    *float64 `json:"UnitPrice"`
	Quantity     *int     `json:"Quantity"`
}

type Supply struct {
	SupplyID  int      `json:"SupplyID"`
	ItemName  string   `json:"ItemName"`
	Quantity  *int     `json:"Quantity"`
	UnitPrice *float64 `json:"UnitPrice"`
}

// LabTest prices are exact decimals carried as text, e.g. "150.00".
type LabTest struct {
	TestID      int     `json:"TestID"`
	TestName    string  `json:"TestName"`
	Description *string `json:"Description"`
	Price       *string `json:"Price"`
}

type RadiologyTest struct {
	RadiologyID int     `json:"RadiologyID"`
	TestName    string  `json:"TestName"`
	Description *string `json:"Description"`
	Price       *string `json:"Price"`
}

func setString(v form.Values, key string, dst *string) {
	if s := v.String(key); s != nil {
		*dst = *s
	}
}

func setOptString(v form.Values, key string, dst **string) {
	if s := v.String(key); s != nil {
		if *s == "" {
			*dst = nil
		} else {
			*dst = s
		}
	}
}

func setInt(v form.Values, key string, dst **int) error {
	if !v.Has(key) {
		return nil
	}
	n, err := v.Int(key)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(v form.Values, key string, dst **float64) error {
	if !v.Has(key) {
		return nil
	}
	f, err := v.Float(key)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setDecimal(v form.Values, key string, dst **string) error {
	if !v.Has(key) {
		return nil
	}
	d, err := v.Decimal(key)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func required(name, field string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Required(field)
	}
	return name, nil
}

func nonNegativeInt(n *int, field string) error {
	if n != nil && *n < 0 {
		return apperr.Validation(field, "must not be negative")
	}
	return nil
}

func nonNegativeFloat(f *float64, field string) error {
	if f != nil && *f < 0 {
		return apperr.Validation(field, "must not be negative")
	}
	return nil
}

func nonNegativeDecimal(d *string, field string) error {
	if d != nil && strings.HasPrefix(*d, "-") {
		return apperr.Validation(field, "must not be negative")
	}
	return nil
}

// -- Medicine --

func applyMedicine(v form.Values, m *Medicine) error {
	setString(v, "MedicineName", &m.MedicineName)
	if err := setFloat(v, "UnitPrice", &m.UnitPrice); err != nil {
		return err
	}
	return setInt(v, "Quantity", &m.Quantity)
}

func validateMedicine(m *Medicine) error {
	var err error
	if m.MedicineName, err = required(m.MedicineName, "MedicineName"); err != nil {
		return err
	}
	if err := nonNegativeFloat(m.UnitPrice, "UnitPrice"); err != nil {
		return err
	}
	return nonNegativeInt(m.Quantity, "Quantity")
}

// -- Supply --

func applySupply(v form.Values, s *Supply) error {
	setString(v, "ItemName", &s.ItemName)
	if err := setInt(v, "Quantity", &s.Quantity); err != nil {
		return err
	}
	return setFloat(v, "UnitPrice", &s.UnitPrice)
}

func validateSupply(s *Supply) error {
	var err error
	if s.ItemName, err = required(s.ItemName, "ItemName"); err != nil {
		return err
	}
	if s.Quantity == nil {
		return apperr.Required("Quantity")
	}
	if s.UnitPrice == nil {
		return apperr.Required("UnitPrice")
	}
	if err := nonNegativeInt(s.Quantity, "Quantity"); err != nil {
		return err
	}
	return nonNegativeFloat(s.UnitPrice, "UnitPrice")
}

// -- Laboratory --

func applyLabTest(v form.Values, t *LabTest) error {
	setString(v, "TestName", &t.TestName)
	setOptString(v, "Description", &t.Description)
	return setDecimal(v, "Price", &t.Price)
}

func validateLabTest(t *LabTest) error {
	var err error
	if t.TestName, err = required(t.TestName, "TestName"); err != nil {
		return err
	}
	return nonNegativeDecimal(t.Price, "Price")
}

// -- Radiology --

func applyRadiologyTest(v form.Values, t *RadiologyTest) error {
	setString(v, "TestName", &t.TestName)
	setOptString(v, "Description", &t.Description)
	return setDecimal(v, "Price", &t.Price)
}

func validateRadiologyTest(t *RadiologyTest) error {
	var err error
	if t.TestName, err = required(t.TestName, "TestName"); err != nil {
		return err
	}
	return nonNegativeDecimal(t.Price, "Price")
}
