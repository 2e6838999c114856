package transform

import (
	"fmt"
	"strings"
)

// javaTokens maps runs of date pattern letters to Go layout elements.
var javaTokens = []struct {
	pattern string
	layout  string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"y", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dd", "02"},
	{"d", "2"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"a", "PM"},
}

// JavaLayout converts a date pattern written in the Java/Spark style used
// by upstream configs, such as "M/d/yy" or "yyyy-MM-dd", to a Go time layout.
// Text between single quotes is copied literally.
func JavaLayout(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("empty date pattern")
	}

	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]

		if c == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				return "", fmt.Errorf("unterminated quote in date pattern %q", pattern)
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		if !isLetter(c) {
			b.WriteByte(c)
			i++
			continue
		}

		run := 1
		for i+run < len(pattern) && pattern[i+run] == c {
			run++
		}
		layout, ok := lookupToken(pattern[i : i+run])
		if !ok {
			return "", fmt.Errorf("unsupported date pattern letters %q in %q", pattern[i:i+run], pattern)
		}
		b.WriteString(layout)
		i += run
	}
	return b.String(), nil
}

func lookupToken(tok string) (string, bool) {
	for _, t := range javaTokens {
		if t.pattern == tok {
			return t.layout, true
		}
	}
	// Longer runs of a year letter mean a four-digit year.
	if strings.Trim(tok, "y") == "" {
		return "2006", true
	}
	return "", false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
