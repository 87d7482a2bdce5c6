package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Part is a catalog listing. Besides the server-assigned ID, clients may
// post any fields they like; everything is kept verbatim in Fields and
// round-trips through the store document unchanged. The typed accessors
// pull out the fields the matching rule cares about, coercing values that
// legacy documents stored as strings.
type Part struct {
	ID     int64
	Fields map[string]interface{}
}

// NewPart builds a part from a client-supplied field set. Any "id" key in
// the input is discarded; the server owns id assignment.
func NewPart(fields map[string]interface{}) Part {
	f := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		f[k] = v
	}
	return Part{Fields: f}
}

// Make returns the part's make field, or "" when absent.
func (p Part) Make() string {
	s, _ := p.Fields["make"].(string)
	return s
}

// YearRange returns the inclusive [yearFrom, yearTo] bounds. ok is false
// when either bound is missing or not coercible to an integer.
func (p Part) YearRange() (from, to int, ok bool) {
	from, okFrom := AsInt(p.Fields["yearFrom"])
	to, okTo := AsInt(p.Fields["yearTo"])
	return from, to, okFrom && okTo
}

// MatchesVehicle reports whether the part fits a vehicle of the given make
// and registration year. Makes match when either string contains the other,
// case-insensitively, so partial or abbreviated naming on either side still
// matches. The year must fall inside the part's inclusive range.
func (p Part) MatchesVehicle(vehicleMake string, year int) bool {
	partMake := strings.ToLower(p.Make())
	carMake := strings.ToLower(vehicleMake)
	if partMake == "" || carMake == "" {
		return false
	}
	if !strings.Contains(carMake, partMake) && !strings.Contains(partMake, carMake) {
		return false
	}
	from, to, ok := p.YearRange()
	if !ok {
		return false
	}
	return year >= from && year <= to
}

// MarshalJSON flattens the part into a single object with the id merged in.
func (p Part) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	out["id"] = p.ID
	return json.Marshal(out)
}

// UnmarshalJSON splits the id back out and keeps the rest verbatim.
// Numbers are decoded as json.Number so large legacy timestamp ids and
// integer years survive the round trip without float truncation.
func (p *Part) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if v, ok := raw["id"]; ok {
		if id, ok := AsInt64(v); ok {
			p.ID = id
		}
		delete(raw, "id")
	}
	p.Fields = raw
	return nil
}

// AsInt coerces a decoded JSON value to an int. Accepts numbers and
// numeric strings; "2015" and 2015 are the same year.
func AsInt(v interface{}) (int, bool) {
	n, ok := AsInt64(v)
	return int(n), ok
}

// AsInt64 is AsInt for values that may exceed int32, such as part ids
// assigned from millisecond timestamps by older deployments.
func AsInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// AsString coerces a decoded JSON value to a string; registry records
// report plate numbers as either strings or numbers.
func AsString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatInt(int64(t), 10)
	}
	return ""
}
