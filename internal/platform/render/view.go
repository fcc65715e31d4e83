package render

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Field is one named value of an entity, in declaration order.
type Field struct {
	Name  string
	Value string
}

// Fields flattens a struct (or pointer to one) into its JSON-visible
// fields. A nil pointer yields no fields. Nested structs are shown by
// their Name field when they have one.
func Fields(v interface{}) []Field {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	out := make([]Field, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Tag.Get("json") == "" {
			// Embedded structs are flattened, as encoding/json does.
			out = append(out, Fields(rv.Field(i).Interface())...)
			continue
		}
		name := jsonName(sf)
		if name == "-" {
			continue
		}
		out = append(out, Field{Name: name, Value: format(rv.Field(i))})
	}
	return out
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

var timeType = reflect.TypeOf(time.Time{})

func format(v reflect.Value) string {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Struct:
		if f := v.FieldByName("Name"); f.IsValid() {
			return format(f)
		}
		return ""
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return ""
	}
	return string(b)
}

// Table is the view model of the list template.
type Table struct {
	Base      string
	Columns   []string
	Rows      []Row
	CanCreate bool
}

type Row struct {
	ID    string
	Cells []string
}

// NewTable builds a table from a slice of structs. The first field of each
// item is taken as its id.
func NewTable(base string, items interface{}, canCreate bool) *Table {
	t := &Table{Base: base, CanCreate: canCreate}
	rv := reflect.ValueOf(items)
	if rv.Kind() != reflect.Slice {
		return t
	}
	for i := 0; i < rv.Len(); i++ {
		fields := Fields(rv.Index(i).Interface())
		if len(fields) == 0 {
			continue
		}
		if t.Columns == nil {
			for _, f := range fields {
				t.Columns = append(t.Columns, f.Name)
			}
		}
		row := Row{ID: fields[0].Value}
		for _, f := range fields {
			row.Cells = append(row.Cells, f.Value)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// DetailActions controls which buttons the detail page shows.
type DetailActions struct {
	CanEdit   bool
	CanDelete bool
	Extra     []Field // additional labelled values, e.g. computed ones
	Links     []NavLink
}

// Record is the view model of the detail template.
type Record struct {
	Base   string
	ID     string
	Fields []Field
	DetailActions
}

func NewRecord(base string, item interface{}, actions DetailActions) *Record {
	fields := Fields(item)
	r := &Record{Base: base, Fields: fields, DetailActions: actions}
	if len(fields) > 0 {
		r.ID = fields[0].Value
	}
	return r
}

// Input describes one form control.
type Input struct {
	Name     string
	Label    string
	Type     string // text, number, email, password, date, datetime-local, textarea, select
	Value    string
	Options  []string
	Required bool
}

// FormView is the view model of the form template.
type FormView struct {
	Action string
	Submit string
	Inputs []Input
}

// Prefill copies the current values of item into inputs with matching
// names. Datetime inputs get the HTML datetime-local layout.
func Prefill(inputs []Input, item interface{}) []Input {
	values := make(map[string]string)
	for _, f := range Fields(item) {
		values[f.Name] = f.Value
	}
	out := make([]Input, len(inputs))
	for i, in := range inputs {
		if v, ok := values[in.Name]; ok && in.Type != "password" {
			switch in.Type {
			case "datetime-local":
				v = strings.Replace(v, " ", "T", 1)
			case "date":
				v, _, _ = strings.Cut(v, " ")
			}
			in.Value = v
		}
		out[i] = in
	}
	return out
}

// Dashboard is the view model of the dashboard template.
type Dashboard struct {
	Counts []Field
	Links  []NavLink
}
