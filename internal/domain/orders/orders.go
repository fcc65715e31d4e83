// Package orders is the single owner of the DoctorOrders text stored on a
// patient: a JSON object naming the catalog items ordered for them plus
// three free-text notes.
package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind names one of the four ordered-item lists.
type Kind string

const (
	Supplies       Kind = "supplies"
	Medicines      Kind = "medicines"
	LabTests       Kind = "labTests"
	RadiologyTests Kind = "radiologyTests"
)

var kinds = []Kind{Supplies, Medicines, LabTests, RadiologyTests}

// Kinds returns the four list kinds in encoding order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Item is one ordered catalog entry. ID is compared as text. Attributes
// other than id are kept verbatim so a decode/encode cycle does not drop
// what the ordering client sent.
type Item struct {
	ID    string
	Extra map[string]json.RawMessage
}

func (it Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(it.Extra)+1)
	for k, v := range it.Extra {
		m[k] = v
	}
	id, _ := json.Marshal(it.ID)
	m["id"] = id
	return json.Marshal(m)
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	// An entry without an id is kept but never matches a lookup.
	it.ID = ""
	if raw, ok := m["id"]; ok {
		id, err := idText(raw)
		if err != nil {
			return err
		}
		it.ID = id
		delete(m, "id")
	}
	it.Extra = nil
	if len(m) > 0 {
		it.Extra = m
	}
	return nil
}

// idText accepts a JSON string or number and returns its text form.
func idText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("order item id must be a string or number, got %s", raw)
}

// DoctorOrders is the decoded form of a patient's orders text.
type DoctorOrders struct {
	Supplies           []Item `json:"supplies"`
	Medicines          []Item `json:"medicines"`
	LabTests           []Item `json:"labTests"`
	RadiologyTests     []Item `json:"radiologyTests"`
	DosageInstructions string `json:"dosageInstructions"`
	LabTestNotes       string `json:"labTestNotes"`
	RadiologyNotes     string `json:"radiologyNotes"`
}

// List returns the items of one kind.
func (o DoctorOrders) List(k Kind) []Item {
	switch k {
	case Supplies:
		return o.Supplies
	case Medicines:
		return o.Medicines
	case LabTests:
		return o.LabTests
	case RadiologyTests:
		return o.RadiologyTests
	}
	return nil
}

// Set replaces the items of one kind.
func (o *DoctorOrders) Set(k Kind, items []Item) {
	switch k {
	case Supplies:
		o.Supplies = items
	case Medicines:
		o.Medicines = items
	case LabTests:
		o.LabTests = items
	case RadiologyTests:
		o.RadiologyTests = items
	}
}

// Contains reports whether an item of kind k has the given id. The first
// match decides; ids are compared as text.
func (o DoctorOrders) Contains(k Kind, id string) bool {
	if id == "" {
		return false
	}
	for _, it := range o.List(k) {
		if it.ID == id {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing is ordered and all notes are blank.
func (o DoctorOrders) IsEmpty() bool {
	for _, k := range kinds {
		if len(o.List(k)) > 0 {
			return false
		}
	}
	return o.DosageInstructions == "" && o.LabTestNotes == "" && o.RadiologyNotes == ""
}

// Encode always writes all seven keys: absent lists as [] and absent notes
// as "".
func Encode(o DoctorOrders) (string, error) {
	for _, k := range kinds {
		if o.List(k) == nil {
			o.Set(k, []Item{})
		}
	}
	b, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("encode doctor orders: %w", err)
	}
	return string(b), nil
}

// Decode parses stored orders text. Empty text, invalid JSON or anything
// other than a JSON object yields empty orders and ok=false; callers treat
// that as "no orders". Inside a valid object each key is read on its own:
// a list or note of the wrong type reads as empty, and list entries that
// are not objects or whose id is not a string or number are skipped.
func Decode(text string) (DoctorOrders, bool) {
	if strings.TrimSpace(text) == "" {
		return DoctorOrders{}, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil || top == nil {
		return DoctorOrders{}, false
	}

	var o DoctorOrders
	for _, k := range kinds {
		o.Set(k, decodeItems(top[string(k)]))
	}
	o.DosageInstructions = decodeNote(top["dosageInstructions"])
	o.LabTestNotes = decodeNote(top["labTestNotes"])
	o.RadiologyNotes = decodeNote(top["radiologyNotes"])
	return o, true
}

func decodeItems(raw json.RawMessage) []Item {
	if raw == nil {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	items := make([]Item, 0, len(elems))
	for _, e := range elems {
		if trimmed := bytes.TrimSpace(e); len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var it Item
		if err := json.Unmarshal(e, &it); err != nil {
			continue
		}
		items = append(items, it)
	}
	return items
}

func decodeNote(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// Holds reports whether the stored text orders item id of kind k.
// Malformed text holds nothing.
func Holds(text string, k Kind, id string) bool {
	o, ok := Decode(text)
	return ok && o.Contains(k, id)
}

// ParseSelection reads a client-side selection of items. It accepts a JSON
// array of objects with an id, a JSON array of bare ids, or a
// comma-separated list of ids. Empty input yields an empty list.
func ParseSelection(text string) ([]Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Item{}, nil
	}
	if !strings.HasPrefix(text, "[") {
		var items []Item
		for _, part := range strings.Split(text, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, Item{ID: p})
			}
		}
		if items == nil {
			items = []Item{}
		}
		return items, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("selection is not a JSON array: %w", err)
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		var it Item
		if trimmed := bytes.TrimSpace(r); len(trimmed) > 0 && trimmed[0] == '{' {
			if err := json.Unmarshal(r, &it); err != nil {
				return nil, err
			}
		} else {
			id, err := idText(r)
			if err != nil {
				return nil, err
			}
			it = Item{ID: id}
		}
		items = append(items, it)
	}
	return items, nil
}

// IDString renders a numeric catalog id the way it is compared in orders.
func IDString(id int) string {
	return strconv.Itoa(id)
}
