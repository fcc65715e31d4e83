package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

// column maps one attribute to SQL. read is the select expression and
// write the placeholder expression, with %d standing for the argument
// number.
type column struct {
	name  string
	read  string
	write string
}

func col(name string) column {
	return column{name: name, read: name, write: "$%d"}
}

// decimalCol moves NUMERIC values as text so no precision is lost.
func decimalCol(name string) column {
	return column{name: name, read: name + "::text", write: "$%d::text::numeric"}
}

// table describes how a catalog type is stored. Columns exclude the id.
type table[T any] struct {
	name    string
	entity  string
	columns []column
	id      func(*T) *int
	fields  func(*T) []interface{} // scan targets in column order
	values  func(*T) []interface{} // arguments in column order
}

var medicineTable = table[Medicine]{
	name:    "pharmacy",
	entity:  "medicine",
	columns: []column{col("medicine_name"), col("unit_price"), col("quantity")},
	id:      func(m *Medicine) *int { return &m.MedicineID },
	fields:  func(m *Medicine) []interface{} { return []interface{}{&m.MedicineName, &m.UnitPrice, &m.Quantity} },
	values:  func(m *Medicine) []interface{} { return []interface{}{m.MedicineName, m.UnitPrice, m.Quantity} },
}

var supplyTable = table[Supply]{
	name:    "supplies",
	entity:  "supply",
	columns: []column{col("item_name"), col("quantity"), col("unit_price")},
	id:      func(s *Supply) *int { return &s.SupplyID },
	fields:  func(s *Supply) []interface{} { return []interface{}{&s.ItemName, &s.Quantity, &s.UnitPrice} },
	values:  func(s *Supply) []interface{} { return []interface{}{s.ItemName, s.Quantity, s.UnitPrice} },
}

var labTestTable = table[LabTest]{
	name:    "laboratory",
	entity:  "laboratory test",
	columns: []column{col("test_name"), col("description"), decimalCol("price")},
	id:      func(t *LabTest) *int { return &t.TestID },
	fields:  func(t *LabTest) []interface{} { return []interface{}{&t.TestName, &t.Description, &t.Price} },
	values:  func(t *LabTest) []interface{} { return []interface{}{t.TestName, t.Description, t.Price} },
}

var radiologyTestTable = table[RadiologyTest]{
	name:    "radiology",
	entity:  "radiology test",
	columns: []column{col("test_name"), col("description"), decimalCol("price")},
	id:      func(t *RadiologyTest) *int { return &t.RadiologyID },
	fields:  func(t *RadiologyTest) []interface{} { return []interface{}{&t.TestName, &t.Description, &t.Price} },
	values:  func(t *RadiologyTest) []interface{} { return []interface{}{t.TestName, t.Description, t.Price} },
}

type repoPG[T any] struct {
	pool *pgxpool.Pool
	t    table[T]

	selectSQL string
	insertSQL string
	updateSQL string
}

func newRepo[T any](pool *pgxpool.Pool, t table[T]) *repoPG[T] {
	reads := make([]string, 0, len(t.columns)+1)
	reads = append(reads, "id")
	names := make([]string, 0, len(t.columns))
	inserts := make([]string, 0, len(t.columns))
	sets := make([]string, 0, len(t.columns))
	for i, c := range t.columns {
		reads = append(reads, c.read)
		names = append(names, c.name)
		inserts = append(inserts, fmt.Sprintf(c.write, i+1))
		sets = append(sets, c.name+" = "+fmt.Sprintf(c.write, i+2))
	}
	return &repoPG[T]{
		pool:      pool,
		t:         t,
		selectSQL: "SELECT " + strings.Join(reads, ", ") + " FROM " + t.name,
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			t.name, strings.Join(names, ", "), strings.Join(inserts, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", t.name, strings.Join(sets, ", ")),
	}
}

func NewMedicineRepo(pool *pgxpool.Pool) Repository[Medicine] {
	return newRepo(pool, medicineTable)
}

func NewSupplyRepo(pool *pgxpool.Pool) Repository[Supply] {
	return newRepo(pool, supplyTable)
}

func NewLabTestRepo(pool *pgxpool.Pool) Repository[LabTest] {
	return newRepo(pool, labTestTable)
}

func NewRadiologyTestRepo(pool *pgxpool.Pool) Repository[RadiologyTest] {
	return newRepo(pool, radiologyTestTable)
}

func (r *repoPG[T]) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG[T]) scan(row pgx.Row) (*T, error) {
	item := new(T)
	targets := append([]interface{}{r.t.id(item)}, r.t.fields(item)...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repoPG[T]) Create(ctx context.Context, item *T) error {
	err := r.conn(ctx).QueryRow(ctx, r.insertSQL, r.t.values(item)...).Scan(r.t.id(item))
	return apperr.FromDB(err, r.t.entity, "")
}

func (r *repoPG[T]) GetByID(ctx context.Context, id int) (*T, error) {
	item, err := r.scan(r.conn(ctx).QueryRow(ctx, r.selectSQL+" WHERE id = $1", id))
	if err != nil {
		return nil, apperr.FromDB(err, r.t.entity, id)
	}
	return item, nil
}

func (r *repoPG[T]) Update(ctx context.Context, item *T) error {
	id := *r.t.id(item)
	args := append([]interface{}{id}, r.t.values(item)...)
	tag, err := r.conn(ctx).Exec(ctx, r.updateSQL, args...)
	if err != nil {
		return apperr.FromDB(err, r.t.entity, id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(r.t.entity, id)
	}
	return nil
}

func (r *repoPG[T]) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, "DELETE FROM "+r.t.name+" WHERE id = $1", id)
	if err != nil {
		return apperr.FromDB(err, r.t.entity, id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(r.t.entity, id)
	}
	return nil
}

func (r *repoPG[T]) List(ctx context.Context, page pagination.Params) ([]*T, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM "+r.t.name).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, r.selectSQL+" ORDER BY id LIMIT $1 OFFSET $2", page.LimitArg(), page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*T{}
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}
