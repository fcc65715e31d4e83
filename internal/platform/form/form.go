// Package form reads entity attributes from either a JSON body or an HTML
// form post into one keyed view, so handlers populate the same fields for
// both callers. Only keys present in the request are reported, which is
// what partial updates rely on.
package form

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

const maxBody = 1 << 20

// Values holds the supplied attributes as text. Non-string JSON values keep
// their JSON encoding, so an array arrives as "[...]".
type Values map[string]string

// Parse reads the request body according to its content type.
func Parse(c echo.Context) (Values, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return parseJSON(req.Body)
	}

	params, err := c.FormParams()
	if err != nil {
		return nil, apperr.Validation("", "malformed form body")
	}
	v := make(Values, len(params))
	for k, vals := range params {
		switch len(vals) {
		case 0:
		case 1:
			v[k] = strings.TrimSpace(vals[0])
		default:
			// Repeated keys (checkbox groups) become a JSON array.
			b, _ := json.Marshal(vals)
			v[k] = string(b)
		}
	}
	return v, nil
}

func parseJSON(body io.Reader) (Values, error) {
	raw := map[string]json.RawMessage{}
	if body != nil {
		dec := json.NewDecoder(io.LimitReader(body, maxBody))
		if err := dec.Decode(&raw); err != nil && err != io.EOF {
			return nil, apperr.Validation("", "malformed JSON body: %v", err)
		}
	}
	v := make(Values, len(raw))
	for k, r := range raw {
		var s string
		switch {
		case string(r) == "null":
			v[k] = ""
		case json.Unmarshal(r, &s) == nil:
			v[k] = strings.TrimSpace(s)
		default:
			v[k] = string(r)
		}
	}
	return v, nil
}

func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// String returns the value for key, or nil when it was not supplied.
func (v Values) String(key string) *string {
	s, ok := v[key]
	if !ok {
		return nil
	}
	return &s
}

// Required returns a non-empty value or a validation error.
func (v Values) Required(key string) (string, error) {
	s := v[key]
	if s == "" {
		return "", apperr.Required(key)
	}
	return s, nil
}

// Int parses key as a whole number. Absent or empty values yield nil.
func (v Values) Int(key string) (*int, error) {
	s := v[key]
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, apperr.Validation(key, "must be a whole number, got %q", s)
		}
		n = int(f)
	}
	return &n, nil
}

// Float parses key as a decimal number. Absent or empty values yield nil.
func (v Values) Float(key string) (*float64, error) {
	s := v[key]
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation(key, "must be a number, got %q", s)
	}
	return &f, nil
}

// Decimal validates key as a price with at most two fractional digits and
// returns it normalised to two decimals. More precise values are rejected,
// never rounded.
func (v Values) Decimal(key string) (*string, error) {
	f, err := v.Float(key)
	if err != nil || f == nil {
		return nil, err
	}
	if math.Abs(*f) >= 1e8 {
		return nil, apperr.Validation(key, "must be less than 100000000")
	}
	if cents := *f * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return nil, apperr.Validation(key, "must have at most two decimal places, got %q", v[key])
	}
	s := strconv.FormatFloat(*f, 'f', 2, 64)
	return &s, nil
}

// DateLayouts are accepted for timestamps, most specific first.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Time parses key with DateLayouts. Absent or empty values yield nil.
func (v Values) Time(key string) (*time.Time, error) {
	s := v[key]
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, apperr.Validation(key, "%v", err)
	}
	return &t, nil
}

// ParseTime accepts any of DateLayouts. Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, use YYYY-MM-DD or YYYY-MM-DDTHH:MM", s)
}

// PathID reads a positive integer route parameter.
func PathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "invalid id %q", c.Param(name))
	}
	return id, nil
}
