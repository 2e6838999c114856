package schema

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the textual form of a date value.
const DateLayout = "2006-01-02"

// Value is a nullable typed cell. The zero Value is a null string.
type Value struct {
	kind  Kind
	valid bool
	str   string
	num   int64
	flag  bool
	at    time.Time
}

// Null returns a typed null of the given kind.
func Null(kind Kind) Value {
	return Value{kind: kind}
}

// String returns a non-null string value.
func String(s string) Value {
	return Value{kind: KindString, valid: true, str: s}
}

// Integer returns a non-null integer value.
func Integer(n int64) Value {
	return Value{kind: KindInteger, valid: true, num: n}
}

// Boolean returns a non-null boolean value.
func Boolean(b bool) Value {
	return Value{kind: KindBoolean, valid: true, flag: b}
}

// Date returns a calendar-day value. The time of day is discarded and the
// day is taken in t's own location.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, valid: true, at: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Timestamp returns a non-null timestamp value normalized to UTC.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, valid: true, at: t.UTC()}
}

// Kind returns the declared kind of the value, including for nulls.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return !v.valid }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if !v.valid || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Int returns the integer payload.
func (v Value) Int() (int64, bool) {
	if !v.valid || v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if !v.valid || v.kind != KindBoolean {
		return false, false
	}
	return v.flag, true
}

// Time returns the payload of a date or timestamp value.
func (v Value) Time() (time.Time, bool) {
	if !v.valid || (v.kind != KindDate && v.kind != KindTimestamp) {
		return time.Time{}, false
	}
	return v.at, true
}

// Text returns the textual form of the value, or "" when null.
func (v Value) Text() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindDate:
		return v.at.Format(DateLayout)
	case KindTimestamp:
		return v.at.Format(time.RFC3339Nano)
	default:
		return v.str
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.valid {
		return "null"
	}
	return v.Text()
}

// Interface returns the native Go payload: nil, string, int64, bool or time.Time.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindInteger:
		return v.num
	case KindBoolean:
		return v.flag
	case KindDate, KindTimestamp:
		return v.at
	default:
		return v.str
	}
}

// Equal reports whether two values have the same kind, nullness and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	switch v.kind {
	case KindInteger:
		return v.num == o.num
	case KindBoolean:
		return v.flag == o.flag
	case KindDate, KindTimestamp:
		return v.at.Equal(o.at)
	default:
		return v.str == o.str
	}
}

// portable returns the value as it appears in JSON and YAML documents.
func (v Value) portable() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindDate, KindTimestamp:
		return v.Text()
	default:
		return v.Interface()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.portable())
}

// MarshalYAML implements the goccy/go-yaml InterfaceMarshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.portable(), nil
}
