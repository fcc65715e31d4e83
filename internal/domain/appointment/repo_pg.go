package appointment

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

const apptColumns = `id, patient_id, doctor_id, appointment_date, queue_number, available_slots`

func (r *repoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.AppointmentID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.QueueNumber, &a.AvailableSlots)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, queue_number, available_slots)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.PatientID, a.DoctorID, a.AppointmentDate, a.QueueNumber, a.AvailableSlots,
	).Scan(&a.AppointmentID)
	return apperr.FromDB(err, "appointment", "")
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Appointment, error) {
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "appointment", id)
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET
			patient_id = $2, doctor_id = $3, appointment_date = $4,
			queue_number = $5, available_slots = $6
		WHERE id = $1`,
		a.AppointmentID, a.PatientID, a.DoctorID, a.AppointmentDate, a.QueueNumber, a.AvailableSlots,
	)
	if err != nil {
		return apperr.FromDB(err, "appointment", a.AppointmentID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment", a.AppointmentID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "appointment", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, page pagination.Params) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptColumns+` FROM appointments ORDER BY appointment_date, id LIMIT $1 OFFSET $2`,
		page.LimitArg(), page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	appts := []*Appointment{}
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *repoPG) DeleteForDoctor(ctx context.Context, doctorID int) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) DeleteForPatient(ctx context.Context, patientID int) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
