package patient

import (
	"strings"
	"time"

	"github.com/hospital/hms/internal/domain/orders"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/form"
)

// Patient is one admitted or registered patient. Doctor is a loose
// reference to a doctor id; nothing enforces that it exists.
type Patient struct {
	PatientID     int        `json:"PatientID"`
	Name          string     `json:"Name"`
	NationalID    *string    `json:"NationalID"`
	Age           *int       `json:"Age"`
	Gender        *string    `json:"Gender"`
	BloodType     *string    `json:"BloodType"`
	Weight        *float64   `json:"Weight"`
	Height        *float64   `json:"Height"`
	Address       *string    `json:"Address"`
	Phone         *string    `json:"Phone"`
	Email         *string    `json:"Email"`
	MedicalNotes  *string    `json:"MedicalNotes"`
	Report        *string    `json:"Report"`
	Diagnose      *string    `json:"Diagnose"`
	DoctorOrders  string     `json:"DoctorOrders"`
	Doctor        *int       `json:"Doctor"`
	DateAdmission *time.Time `json:"Date_admission"`
	DateDischarge *time.Time `json:"Date_discharge"`
}

// Detail is a patient with the assigned doctor's name resolved.
type Detail struct {
	*Patient
	DoctorName *string `json:"DoctorName,omitempty"`
}

// Form keys carrying order selections and notes.
var selectionKeys = map[orders.Kind]string{
	orders.Supplies:       "selectedSupplies",
	orders.Medicines:      "selectedMedicines",
	orders.LabTests:       "selectedLabTests",
	orders.RadiologyTests: "selectedRadiologyTests",
}

const (
	dosageKey         = "medicineDosageInstructions"
	labNotesKey       = "labtestNotes"
	radiologyNotesKey = "radiologyNotes"
)

var (
	genders    = []string{"Male", "Female"}
	bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

// optString sets *dst from key when supplied; an empty value clears it.
func optString(v form.Values, key string, dst **string) {
	s := v.String(key)
	if s == nil {
		return
	}
	if *s == "" {
		*dst = nil
		return
	}
	*dst = s
}

// apply overwrites the attributes present in v.
func apply(v form.Values, p *Patient) error {
	if s := v.String("Name"); s != nil {
		p.Name = *s
	}
	optString(v, "NationalID", &p.NationalID)
	optString(v, "Gender", &p.Gender)
	optString(v, "BloodType", &p.BloodType)
	optString(v, "Address", &p.Address)
	optString(v, "Phone", &p.Phone)
	optString(v, "Email", &p.Email)
	optString(v, "MedicalNotes", &p.MedicalNotes)
	optString(v, "Report", &p.Report)
	optString(v, "Diagnose", &p.Diagnose)

	var err error
	if v.Has("Age") {
		if p.Age, err = v.Int("Age"); err != nil {
			return err
		}
	}
	if v.Has("Doctor") {
		if p.Doctor, err = v.Int("Doctor"); err != nil {
			return err
		}
	}
	if v.Has("Weight") {
		if p.Weight, err = v.Float("Weight"); err != nil {
			return err
		}
	}
	if v.Has("Height") {
		if p.Height, err = v.Float("Height"); err != nil {
			return err
		}
	}
	if v.Has("Date_admission") {
		if p.DateAdmission, err = v.Time("Date_admission"); err != nil {
			return err
		}
	}
	if v.Has("Date_discharge") {
		if p.DateDischarge, err = v.Time("Date_discharge"); err != nil {
			return err
		}
	}
	return applyOrders(v, p)
}

// applyOrders merges supplied selections and notes into the stored orders
// and re-encodes them. A DoctorOrders value replaces the stored orders
// before selections are applied. Untouched orders text is left as is.
func applyOrders(v form.Values, p *Patient) error {
	o, _ := orders.Decode(p.DoctorOrders)
	touched := false

	if s := v.String("DoctorOrders"); s != nil {
		decoded, ok := orders.Decode(*s)
		if !ok && strings.TrimSpace(*s) != "" {
			return apperr.Validation("DoctorOrders", "must be a JSON object")
		}
		o, touched = decoded, true
	}
	for _, k := range orders.Kinds() {
		key := selectionKeys[k]
		if !v.Has(key) {
			continue
		}
		items, err := orders.ParseSelection(v[key])
		if err != nil {
			return apperr.Validation(key, "%v", err)
		}
		o.Set(k, items)
		touched = true
	}
	if s := v.String(dosageKey); s != nil {
		o.DosageInstructions, touched = *s, true
	}
	if s := v.String(labNotesKey); s != nil {
		o.LabTestNotes, touched = *s, true
	}
	if s := v.String(radiologyNotesKey); s != nil {
		o.RadiologyNotes, touched = *s, true
	}

	if !touched && p.DoctorOrders != "" {
		return nil
	}
	text, err := orders.Encode(o)
	if err != nil {
		return err
	}
	p.DoctorOrders = text
	return nil
}

func canonical(value string, allowed []string) (string, bool) {
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return a, true
		}
	}
	return "", false
}

func validate(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Required("Name")
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
		return apperr.Validation("Age", "must be between 0 and 150")
	}
	if p.Weight != nil && *p.Weight < 0 {
		return apperr.Validation("Weight", "must not be negative")
	}
	if p.Height != nil && *p.Height < 0 {
		return apperr.Validation("Height", "must not be negative")
	}
	if p.Gender != nil {
		g, ok := canonical(*p.Gender, genders)
		if !ok {
			return apperr.Validation("Gender", "must be one of %s", strings.Join(genders, ", "))
		}
		p.Gender = &g
	}
	if p.BloodType != nil {
		b, ok := canonical(*p.BloodType, bloodTypes)
		if !ok {
			return apperr.Validation("BloodType", "must be one of %s", strings.Join(bloodTypes, ", "))
		}
		p.BloodType = &b
	}
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return apperr.Validation("Email", "must be an email address")
	}
	if p.DateAdmission != nil && p.DateDischarge != nil && p.DateDischarge.Before(*p.DateAdmission) {
		return apperr.Validation("Date_discharge", "must not be before Date_admission")
	}
	return nil
}
