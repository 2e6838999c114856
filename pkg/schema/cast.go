package schema

import (
	"errors"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
)

var errUnsupported = errors.New("unsupported conversion")

// Cast converts v to the given kind. Nulls convert to a null of the target
// kind. A value that cannot be converted becomes a null of the target kind
// and a *errors.ParseError naming field is returned alongside it.
func Cast(field string, v Value, kind Kind) (Value, error) {
	if v.IsNull() {
		return Null(kind), nil
	}
	if v.Kind() == kind {
		return v, nil
	}

	text := strings.TrimSpace(v.Text())
	switch kind {
	case KindString:
		return String(v.Text()), nil

	case KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Null(kind), pkgerrors.NewParseError(field, text, kind.String(), err)
		}
		return Integer(n), nil

	case KindBoolean:
		b, err := ParseBool(text)
		if err != nil {
			return Null(kind), pkgerrors.NewParseError(field, text, kind.String(), err)
		}
		return Boolean(b), nil

	case KindDate:
		if t, ok := v.Time(); ok {
			return Date(t), nil
		}
		t, err := time.Parse(DateLayout, text)
		if err != nil {
			return Null(kind), pkgerrors.NewParseError(field, text, kind.String(), err)
		}
		return Date(t), nil

	case KindTimestamp:
		if t, ok := v.Time(); ok {
			return Timestamp(t), nil
		}
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return Null(kind), pkgerrors.NewParseError(field, text, kind.String(), err)
		}
		return Timestamp(t), nil
	}

	return Null(kind), pkgerrors.NewParseError(field, text, kind.String(), errUnsupported)
}

// ParseBool accepts the spellings upstream feeds use for yes/no columns
// in addition to those accepted by strconv.ParseBool.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}
