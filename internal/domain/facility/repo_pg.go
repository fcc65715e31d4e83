package facility

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

// -- Department Repository --

type deptRepoPG struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepo(pool *pgxpool.Pool) DepartmentRepository {
	return &deptRepoPG{pool: pool}
}

func (r *deptRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *deptRepoPG) Create(ctx context.Context, d *Department) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id`, d.DepartmentName).
		Scan(&d.DepartmentID)
	return apperr.FromDB(err, "department", "")
}

func (r *deptRepoPG) GetByID(ctx context.Context, id int) (*Department, error) {
	var d Department
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM departments WHERE id = $1`, id).
		Scan(&d.DepartmentID, &d.DepartmentName)
	if err != nil {
		return nil, apperr.FromDB(err, "department", id)
	}
	return &d, nil
}

func (r *deptRepoPG) Update(ctx context.Context, d *Department) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE departments SET name = $2 WHERE id = $1`,
		d.DepartmentID, d.DepartmentName)
	if err != nil {
		return apperr.FromDB(err, "department", d.DepartmentID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("department", d.DepartmentID)
	}
	return nil
}

func (r *deptRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "department", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("department", id)
	}
	return nil
}

func (r *deptRepoPG) List(ctx context.Context, page pagination.Params) ([]*Department, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM departments`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM departments ORDER BY id LIMIT $1 OFFSET $2`, page.LimitArg(), page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	depts := []*Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.DepartmentID, &d.DepartmentName); err != nil {
			return nil, 0, err
		}
		depts = append(depts, &d)
	}
	return depts, total, rows.Err()
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorColumns = `id, name, age, scientific_degree, specialist, department_id, phone, email`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.DoctorID, &d.Name, &d.Age, &d.ScientificDegree, &d.Specialist,
		&d.DepartmentID, &d.Phone, &d.Email)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (name, age, scientific_degree, specialist, department_id, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		d.Name, d.Age, d.ScientificDegree, d.Specialist, d.DepartmentID, d.Phone, d.Email,
	).Scan(&d.DoctorID)
	return apperr.FromDB(err, "doctor", "")
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "doctor", id)
	}
	return d, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET
			name = $2, age = $3, scientific_degree = $4, specialist = $5,
			department_id = $6, phone = $7, email = $8
		WHERE id = $1`,
		d.DoctorID, d.Name, d.Age, d.ScientificDegree, d.Specialist, d.DepartmentID, d.Phone, d.Email,
	)
	if err != nil {
		return apperr.FromDB(err, "doctor", d.DoctorID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor", d.DoctorID)
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "doctor", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor", id)
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, page pagination.Params) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, err
	}
	docs, err := r.query(ctx,
		`SELECT `+doctorColumns+` FROM doctors ORDER BY id LIMIT $1 OFFSET $2`, page.LimitArg(), page.Offset)
	return docs, total, err
}

func (r *doctorRepoPG) ListByDepartment(ctx context.Context, departmentID int) ([]*Doctor, error) {
	return r.query(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE department_id = $1 ORDER BY id`, departmentID)
}

func (r *doctorRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*Doctor{}
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *doctorRepoPG) ClearDepartment(ctx context.Context, departmentID int) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET department_id = NULL WHERE department_id = $1`, departmentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
