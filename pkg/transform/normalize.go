package transform

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errNoDigits = errors.New("no digits")

// NormalizePhone keeps only the ASCII digits of s.
func NormalizePhone(s string) string {
	return digits(s)
}

// SplitName trims s and splits it on single spaces. The first token is the
// first name; the second, if any, is the last name. Further tokens are
// dropped, so "Mary Ann Smith" yields ("Mary", "Ann").
func SplitName(s string) (trimmed, first, last string) {
	trimmed = strings.TrimSpace(s)
	parts := strings.Split(trimmed, " ")
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return trimmed, first, last
}

// ParseDate parses s with a Go layout and returns the calendar day.
func ParseDate(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CoerceInteger strips every non-digit from s and parses the rest.
func CoerceInteger(s string) (int64, error) {
	d := digits(s)
	if d == "" {
		return 0, errNoDigits
	}
	return strconv.ParseInt(d, 10, 64)
}

// ConsolidateValues joins the non-empty labels with ", ".
func ConsolidateValues(labels []string) string {
	var kept []string
	for _, l := range labels {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, ", ")
}

// ConsolidateFlags returns the names of the columns whose flag equals
// sentinel, joined with ", " in column order. flags[i] belongs to columns[i].
func ConsolidateFlags(columns, flags []string, sentinel string) string {
	var kept []string
	for i, c := range columns {
		if i < len(flags) && flags[i] == sentinel {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, ", ")
}

// StripChars removes every rune of chars from s.
func StripChars(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
