package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/hospital/hms/internal/domain/orders"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/form"
	"github.com/hospital/hms/pkg/pagination"
)

// -- Mocks --

// memRepo is a map-backed Repository for any catalog type.
type memRepo[T any] struct {
	items  map[int]*T
	nextID int
	id     func(*T) *int
}

func newMemRepo[T any](t table[T]) *memRepo[T] {
	return &memRepo[T]{items: map[int]*T{}, id: t.id}
}

func (m *memRepo[T]) Create(_ context.Context, item *T) error {
	m.nextID++
	*m.id(item) = m.nextID
	c := *item
	m.items[m.nextID] = &c
	return nil
}

func (m *memRepo[T]) GetByID(_ context.Context, id int) (*T, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("item", id)
	}
	c := *item
	return &c, nil
}

func (m *memRepo[T]) Update(_ context.Context, item *T) error {
	id := *m.id(item)
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("item", id)
	}
	c := *item
	m.items[id] = &c
	return nil
}

func (m *memRepo[T]) Delete(_ context.Context, id int) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("item", id)
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo[T]) List(_ context.Context, page pagination.Params) ([]*T, int, error) {
	ids := make([]int, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	all := make([]*T, 0, len(ids))
	for _, id := range ids {
		all = append(all, m.items[id])
	}
	start := page.Offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return all[start:end], len(all), nil
}

// mockHolders answers from a fixed set of patients with orders text.
type mockHolders struct {
	patients []*patient.Patient
	calls    []string
}

func (m *mockHolders) Holding(_ context.Context, k orders.Kind, id string) ([]*patient.Patient, error) {
	m.calls = append(m.calls, string(k)+":"+id)
	out := []*patient.Patient{}
	for _, p := range m.patients {
		if orders.Holds(p.DoctorOrders, k, id) {
			out = append(out, p)
		}
	}
	return out, nil
}

func newHolders() *mockHolders {
	return &mockHolders{patients: []*patient.Patient{
		{PatientID: 1, Name: "Mona", DoctorOrders: `{"medicines":[{"id":"1"}],"labTests":[{"id":2}]}`},
		{PatientID: 2, Name: "Omar", DoctorOrders: `{"medicines":[{"id":"2"}]}`},
		{PatientID: 3, Name: "Sara", DoctorOrders: `not json`},
	}}
}

func newMedicineTestService() (*Service[Medicine], *memRepo[Medicine], *mockHolders) {
	repo := newMemRepo(medicineTable)
	holders := newHolders()
	return NewMedicineService(repo, holders, db.NoopTransactor{}), repo, holders
}

// -- Tests --

func TestService_Create(t *testing.T) {
	svc, repo, _ := newMedicineTestService()

	m, err := svc.Create(context.Background(), form.Values{"MedicineName": "Panadol", "Quantity": "10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MedicineID != 1 || repo.items[1].MedicineName != "Panadol" {
		t.Errorf("unexpected stored medicine %+v", repo.items[1])
	}
}

func TestService_Create_Invalid(t *testing.T) {
	svc, repo, _ := newMedicineTestService()

	_, err := svc.Create(context.Background(), form.Values{"Quantity": "10"})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestService_Update_Partial(t *testing.T) {
	svc, repo, _ := newMedicineTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, form.Values{"MedicineName": "Panadol", "Quantity": "10", "UnitPrice": "3"}); err != nil {
		t.Fatal(err)
	}

	m, err := svc.Update(ctx, 1, form.Values{"Quantity": "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *m.Quantity != 4 || m.MedicineName != "Panadol" || *repo.items[1].UnitPrice != 3 {
		t.Errorf("expected only quantity to change, got %+v", repo.items[1])
	}
}

func TestService_Update_Missing(t *testing.T) {
	svc, _, _ := newMedicineTestService()

	_, err := svc.Update(context.Background(), 9, form.Values{"Quantity": "4"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo, _ := newMedicineTestService()
	ctx := context.Background()
	svc.Create(ctx, form.Values{"MedicineName": "Panadol"})

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("expected medicine removed")
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestService_Holders(t *testing.T) {
	svc, _, holders := newMedicineTestService()
	ctx := context.Background()
	svc.Create(ctx, form.Values{"MedicineName": "Panadol"})

	got, err := svc.Holders(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Mona" {
		t.Errorf("expected only Mona, got %+v", got)
	}
	if len(holders.calls) != 1 || holders.calls[0] != "medicines:1" {
		t.Errorf("unexpected lookups %v", holders.calls)
	}
}

func TestService_Holders_UsesItsOwnKind(t *testing.T) {
	repo := newMemRepo(labTestTable)
	svc := NewLabTestService(repo, newHolders(), db.NoopTransactor{})
	ctx := context.Background()
	svc.Create(ctx, form.Values{"TestName": "CBC"})
	svc.Create(ctx, form.Values{"TestName": "Lipids"})

	got, err := svc.Holders(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].PatientID != 1 {
		t.Errorf("expected patient 1 holding lab test 2, got %+v", got)
	}
}

func TestService_Holders_UnknownItem(t *testing.T) {
	svc, _, holders := newMedicineTestService()

	_, err := svc.Holders(context.Background(), 5)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if len(holders.calls) != 0 {
		t.Error("expected no patient lookup")
	}
}

func TestService_ListAndCount(t *testing.T) {
	svc, _, _ := newMedicineTestService()
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		svc.Create(ctx, form.Values{"MedicineName": name})
	}

	items, total, err := svc.List(ctx, pagination.Params{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].MedicineName != "B" {
		t.Errorf("unexpected page %d items, total %d", len(items), total)
	}
	n, err := svc.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("expected count 3, got %d (%v)", n, err)
	}
}
