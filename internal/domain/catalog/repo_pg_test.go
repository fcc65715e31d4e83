package catalog

import "testing"

func TestNewRepo_SQL(t *testing.T) {
	r := newRepo(nil, labTestTable)

	if want := "SELECT id, test_name, description, price::text FROM laboratory"; r.selectSQL != want {
		t.Errorf("select:\n got %s\nwant %s", r.selectSQL, want)
	}
	if want := "INSERT INTO laboratory (test_name, description, price) VALUES ($1, $2, $3::text::numeric) RETURNING id"; r.insertSQL != want {
		t.Errorf("insert:\n got %s\nwant %s", r.insertSQL, want)
	}
	if want := "UPDATE laboratory SET test_name = $2, description = $3, price = $4::text::numeric WHERE id = $1"; r.updateSQL != want {
		t.Errorf("update:\n got %s\nwant %s", r.updateSQL, want)
	}
}

func TestTables_ColumnsMatchFields(t *testing.T) {
	check := func(name string, columns []column, fields, values int) {
		if len(columns) != fields || len(columns) != values {
			t.Errorf("%s: %d columns, %d scan targets, %d values", name, len(columns), fields, values)
		}
	}
	check("pharmacy", medicineTable.columns, len(medicineTable.fields(&Medicine{})), len(medicineTable.values(&Medicine{})))
	check("supplies", supplyTable.columns, len(supplyTable.fields(&Supply{})), len(supplyTable.values(&Supply{})))
	check("laboratory", labTestTable.columns, len(labTestTable.fields(&LabTest{})), len(labTestTable.values(&LabTest{})))
	check("radiology", radiologyTestTable.columns, len(radiologyTestTable.fields(&RadiologyTest{})), len(radiologyTestTable.values(&RadiologyTest{})))
}
