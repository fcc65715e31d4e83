package facility

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

// -- Mock Repositories --

// store backs both mock repositories so a transaction can snapshot and
// restore everything at once.
type store struct {
	depts   map[int]*Department
	doctors map[int]*Doctor
	appts   map[int]int // appointment id -> doctor id
	nextID  int

	failDelete error
}

func newStore() *store {
	return &store{depts: map[int]*Department{}, doctors: map[int]*Doctor{}, appts: map[int]int{}}
}

func (s *store) id() int {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	depts   map[int]Department
	doctors map[int]Doctor
	appts   map[int]int
}

func (s *store) snapshot() snapshot {
	snap := snapshot{depts: map[int]Department{}, doctors: map[int]Doctor{}, appts: map[int]int{}}
	for k, v := range s.depts {
		snap.depts[k] = *v
	}
	for k, v := range s.doctors {
		snap.doctors[k] = *v
	}
	for k, v := range s.appts {
		snap.appts[k] = v
	}
	return snap
}

func (s *store) restore(snap snapshot) {
	s.depts, s.doctors, s.appts = map[int]*Department{}, map[int]*Doctor{}, snap.appts
	for k, v := range snap.depts {
		v := v
		s.depts[k] = &v
	}
	for k, v := range snap.doctors {
		v := v
		s.doctors[k] = &v
	}
}

// rollbackTx restores the store when the unit of work fails.
type rollbackTx struct {
	s     *store
	calls int
}

func (t *rollbackTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type mockDeptRepo struct{ s *store }

func (m *mockDeptRepo) Create(_ context.Context, d *Department) error {
	d.DepartmentID = m.s.id()
	c := *d
	m.s.depts[d.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id int) (*Department, error) {
	d, ok := m.s.depts[id]
	if !ok {
		return nil, apperr.NotFound("department", id)
	}
	c := *d
	return &c, nil
}

func (m *mockDeptRepo) Update(_ context.Context, d *Department) error {
	if _, ok := m.s.depts[d.DepartmentID]; !ok {
		return apperr.NotFound("department", d.DepartmentID)
	}
	c := *d
	m.s.depts[d.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id int) error {
	if m.s.failDelete != nil {
		return m.s.failDelete
	}
	if _, ok := m.s.depts[id]; !ok {
		return apperr.NotFound("department", id)
	}
	delete(m.s.depts, id)
	return nil
}

func (m *mockDeptRepo) List(_ context.Context, page pagination.Params) ([]*Department, int, error) {
	ids := make([]int, 0, len(m.s.depts))
	for id := range m.s.depts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []*Department{}
	for _, id := range ids {
		out = append(out, m.s.depts[id])
	}
	return window(out, page), len(out), nil
}

type mockDoctorRepo struct{ s *store }

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	if d.DepartmentID != nil {
		if _, ok := m.s.depts[*d.DepartmentID]; !ok {
			return apperr.Validation("department_id", "references a missing record")
		}
	}
	d.DoctorID = m.s.id()
	c := *d
	m.s.doctors[d.DoctorID] = &c
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id int) (*Doctor, error) {
	d, ok := m.s.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor", id)
	}
	c := *d
	return &c, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	if _, ok := m.s.doctors[d.DoctorID]; !ok {
		return apperr.NotFound("doctor", d.DoctorID)
	}
	c := *d
	m.s.doctors[d.DoctorID] = &c
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.s.doctors[id]; !ok {
		return apperr.NotFound("doctor", id)
	}
	delete(m.s.doctors, id)
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, page pagination.Params) ([]*Doctor, int, error) {
	out := m.sorted(func(*Doctor) bool { return true })
	return window(out, page), len(out), nil
}

func (m *mockDoctorRepo) ListByDepartment(_ context.Context, departmentID int) ([]*Doctor, error) {
	return m.sorted(func(d *Doctor) bool {
		return d.DepartmentID != nil && *d.DepartmentID == departmentID
	}), nil
}

func (m *mockDoctorRepo) sorted(keep func(*Doctor) bool) []*Doctor {
	ids := make([]int, 0, len(m.s.doctors))
	for id, d := range m.s.doctors {
		if keep(d) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := []*Doctor{}
	for _, id := range ids {
		out = append(out, m.s.doctors[id])
	}
	return out
}

func (m *mockDoctorRepo) ClearDepartment(_ context.Context, departmentID int) (int64, error) {
	var n int64
	for _, d := range m.s.doctors {
		if d.DepartmentID != nil && *d.DepartmentID == departmentID {
			d.DepartmentID = nil
			n++
		}
	}
	return n, nil
}

type mockApptRemover struct{ s *store }

func (m *mockApptRemover) DeleteForDoctor(_ context.Context, doctorID int) (int64, error) {
	var n int64
	for id, doc := range m.s.appts {
		if doc == doctorID {
			delete(m.s.appts, id)
			n++
		}
	}
	return n, nil
}

func window[T any](items []T, page pagination.Params) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func newTestService() (*Service, *store, *rollbackTx) {
	s := newStore()
	tx := &rollbackTx{s: s}
	return NewService(&mockDeptRepo{s}, &mockDoctorRepo{s}, &mockApptRemover{s}, tx), s, tx
}

func intPtr(n int) *int { return &n }

// -- Department Tests --

func TestService_CreateDepartment(t *testing.T) {
	svc, _, tx := newTestService()
	d := &Department{DepartmentName: "  Cardiology "}
	if err := svc.CreateDepartment(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DepartmentID == 0 {
		t.Error("expected id to be assigned")
	}
	if d.DepartmentName != "Cardiology" {
		t.Errorf("expected trimmed name, got %q", d.DepartmentName)
	}
	if tx.calls != 1 {
		t.Errorf("expected create to run in a transaction, got %d", tx.calls)
	}
}

func TestService_CreateDepartment_NameRequired(t *testing.T) {
	svc, s, _ := newTestService()
	err := svc.CreateDepartment(context.Background(), &Department{})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(s.depts) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestService_GetDepartment_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetDepartment(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_UpdateDepartment_Partial(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d := &Department{DepartmentName: "Cardiology"}
	svc.CreateDepartment(ctx, d)

	got, err := svc.UpdateDepartment(ctx, d.DepartmentID, form.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DepartmentName != "Cardiology" {
		t.Errorf("expected untouched name, got %q", got.DepartmentName)
	}

	got, err = svc.UpdateDepartment(ctx, d.DepartmentID, form.Values{"DepartmentName": "Neurology"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := svc.GetDepartment(ctx, d.DepartmentID)
	if got.DepartmentName != "Neurology" || stored.DepartmentName != "Neurology" {
		t.Errorf("expected Neurology, got %q / %q", got.DepartmentName, stored.DepartmentName)
	}
}

func TestService_DeleteDepartment_DetachesDoctors(t *testing.T) {
	svc, s, _ := newTestService()
	ctx := context.Background()
	d := &Department{DepartmentName: "Cardiology"}
	svc.CreateDepartment(ctx, d)
	doc := &Doctor{Name: "Dr. Hassan", DepartmentID: intPtr(d.DepartmentID)}
	svc.CreateDoctor(ctx, doc)

	if err := svc.DeleteDepartment(ctx, d.DepartmentID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.depts[d.DepartmentID]; ok {
		t.Error("expected department to be gone")
	}
	if s.doctors[doc.DoctorID].DepartmentID != nil {
		t.Error("expected doctor to be detached")
	}
}

func TestService_DeleteDepartment_RollsBackOnFailure(t *testing.T) {
	svc, s, _ := newTestService()
	ctx := context.Background()
	d := &Department{DepartmentName: "Cardiology"}
	svc.CreateDepartment(ctx, d)
	doc := &Doctor{Name: "Dr. Hassan", DepartmentID: intPtr(d.DepartmentID)}
	svc.CreateDoctor(ctx, doc)

	s.failDelete = errors.New("connection reset")
	if err := svc.DeleteDepartment(ctx, d.DepartmentID); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.depts[d.DepartmentID]; !ok {
		t.Error("expected department to survive")
	}
	if dep := s.doctors[doc.DoctorID].DepartmentID; dep == nil || *dep != d.DepartmentID {
		t.Error("expected doctor to keep the department reference")
	}
}

func TestService_DeleteDepartment_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.DeleteDepartment(context.Background(), 7); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_DepartmentDoctors(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a := &Department{DepartmentName: "A"}
	b := &Department{DepartmentName: "B"}
	svc.CreateDepartment(ctx, a)
	svc.CreateDepartment(ctx, b)
	svc.CreateDoctor(ctx, &Doctor{Name: "One", DepartmentID: intPtr(a.DepartmentID)})
	svc.CreateDoctor(ctx, &Doctor{Name: "Two", DepartmentID: intPtr(b.DepartmentID)})
	svc.CreateDoctor(ctx, &Doctor{Name: "Three", DepartmentID: intPtr(a.DepartmentID)})

	docs, err := svc.DepartmentDoctors(ctx, a.DepartmentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "One" || docs[1].Name != "Three" {
		t.Errorf("unexpected doctors: %+v", docs)
	}
}

// -- Doctor Tests --

func TestService_CreateDoctor_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	tests := []struct {
		name string
		doc  Doctor
	}{
		{"missing name", Doctor{}},
		{"negative age", Doctor{Name: "X", Age: intPtr(-1)}},
		{"bad email", Doctor{Name: "X", Email: strPtr("nope")}},
		{"unknown department", Doctor{Name: "X", DepartmentID: intPtr(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc
			if err := svc.CreateDoctor(ctx, &doc); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestService_UpdateDoctor_BadNumber(t *testing.T) {
	svc, s, _ := newTestService()
	ctx := context.Background()
	doc := &Doctor{Name: "Dr. Hassan", Age: intPtr(40)}
	svc.CreateDoctor(ctx, doc)

	_, err := svc.UpdateDoctor(ctx, doc.DoctorID, form.Values{"Name": "Changed", "Age": "forty"})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.doctors[doc.DoctorID].Name != "Dr. Hassan" {
		t.Error("expected stored doctor to be unchanged")
	}
}

func TestService_UpdateDoctor_ClearDepartment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d := &Department{DepartmentName: "A"}
	svc.CreateDepartment(ctx, d)
	doc := &Doctor{Name: "Dr. Hassan", DepartmentID: intPtr(d.DepartmentID)}
	svc.CreateDoctor(ctx, doc)

	got, err := svc.UpdateDoctor(ctx, doc.DoctorID, form.Values{"DepartmentID": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DepartmentID != nil {
		t.Errorf("expected department cleared, got %v", *got.DepartmentID)
	}
}

func TestService_DeleteDoctor_RemovesAppointments(t *testing.T) {
	svc, s, _ := newTestService()
	ctx := context.Background()
	doc := &Doctor{Name: "Dr. Hassan"}
	other := &Doctor{Name: "Dr. Lina"}
	svc.CreateDoctor(ctx, doc)
	svc.CreateDoctor(ctx, other)
	s.appts[100] = doc.DoctorID
	s.appts[101] = other.DoctorID
	s.appts[102] = doc.DoctorID

	if err := svc.DeleteDoctor(ctx, doc.DoctorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.appts) != 1 || s.appts[101] != other.DoctorID {
		t.Errorf("expected only the other doctor's appointment to remain, got %v", s.appts)
	}
	if _, ok := s.doctors[doc.DoctorID]; ok {
		t.Error("expected doctor to be gone")
	}
}

func TestService_ListDoctors_Pagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C"} {
		svc.CreateDoctor(ctx, &Doctor{Name: n})
	}

	docs, total, err := svc.ListDoctors(ctx, pagination.Params{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(docs) != 2 || docs[0].Name != "B" {
		t.Errorf("unexpected page: total=%d docs=%+v", total, docs)
	}
}

func TestService_NoopTransactor(t *testing.T) {
	s := newStore()
	svc := NewService(&mockDeptRepo{s}, &mockDoctorRepo{s}, &mockApptRemover{s}, db.NoopTransactor{})
	if err := svc.CreateDepartment(context.Background(), &Department{DepartmentName: "ER"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_DoctorNameAndCounts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if err := svc.CreateDepartment(ctx, &Department{DepartmentName: "Cardiology"}); err != nil {
		t.Fatal(err)
	}
	d := &Doctor{Name: "Dr. Hassan"}
	if err := svc.CreateDoctor(ctx, d); err != nil {
		t.Fatal(err)
	}

	name, err := svc.DoctorName(ctx, d.DoctorID)
	if err != nil || name != "Dr. Hassan" {
		t.Errorf("expected Dr. Hassan, got %q (%v)", name, err)
	}
	if _, err := svc.DoctorName(ctx, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if n, _ := svc.CountDepartments(ctx); n != 1 {
		t.Errorf("expected 1 department, got %d", n)
	}
	if n, _ := svc.CountDoctors(ctx); n != 1 {
		t.Errorf("expected 1 doctor, got %d", n)
	}
}
