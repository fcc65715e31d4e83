package patient

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientColumns = `id, name, national_id, age, gender, blood_type, weight, height,
	address, phone, email, medical_notes, report, diagnose, COALESCE(doctor_orders, ''),
	doctor_id, date_admission, date_discharge`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.PatientID, &p.Name, &p.NationalID, &p.Age, &p.Gender, &p.BloodType,
		&p.Weight, &p.Height, &p.Address, &p.Phone, &p.Email, &p.MedicalNotes, &p.Report,
		&p.Diagnose, &p.DoctorOrders, &p.Doctor, &p.DateAdmission, &p.DateDischarge)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (name, national_id, age, gender, blood_type, weight, height,
			address, phone, email, medical_notes, report, diagnose, doctor_orders,
			doctor_id, date_admission, date_discharge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		p.Name, p.NationalID, p.Age, p.Gender, p.BloodType, p.Weight, p.Height,
		p.Address, p.Phone, p.Email, p.MedicalNotes, p.Report, p.Diagnose, p.DoctorOrders,
		p.Doctor, p.DateAdmission, p.DateDischarge,
	).Scan(&p.PatientID)
	return apperr.FromDB(err, "patient", "")
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "patient", id)
	}
	return p, nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, email))
	if err != nil {
		return nil, apperr.FromDB(err, "patient with email", email)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			name = $2, national_id = $3, age = $4, gender = $5, blood_type = $6,
			weight = $7, height = $8, address = $9, phone = $10, email = $11,
			medical_notes = $12, report = $13, diagnose = $14, doctor_orders = $15,
			doctor_id = $16, date_admission = $17, date_discharge = $18
		WHERE id = $1`,
		p.PatientID, p.Name, p.NationalID, p.Age, p.Gender, p.BloodType, p.Weight, p.Height,
		p.Address, p.Phone, p.Email, p.MedicalNotes, p.Report, p.Diagnose, p.DoctorOrders,
		p.Doctor, p.DateAdmission, p.DateDischarge,
	)
	if err != nil {
		return apperr.FromDB(err, "patient", p.PatientID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", p.PatientID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "patient", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, page pagination.Params) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY id LIMIT $1 OFFSET $2`, page.LimitArg(), page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
