package schema

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a canonical field.
type Kind int

// Field kinds.
const (
	KindString Kind = iota
	KindInteger
	KindBoolean
	KindDate
	KindTimestamp
)

var kindNames = [...]string{
	KindString:    "string",
	KindInteger:   "integer",
	KindBoolean:   "boolean",
	KindDate:      "date",
	KindTimestamp: "timestamp",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind for a name such as "integer" or "date".
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return KindString, fmt.Errorf("unknown field kind %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
