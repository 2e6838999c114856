package transform

import (
	"fmt"
	"strings"
)

// Spec declares one hook and its parameters. Which parameters apply depends
// on the hook; unused ones are ignored.
type Spec struct {
	Name     string   `yaml:"name" json:"name"`
	Field    string   `yaml:"field,omitempty" json:"field,omitempty"`
	Fields   []string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Columns  []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	Target   string   `yaml:"target,omitempty" json:"target,omitempty"`
	First    string   `yaml:"first,omitempty" json:"first,omitempty"`
	Last     string   `yaml:"last,omitempty" json:"last,omitempty"`
	Sentinel string   `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`
	Chars    string   `yaml:"chars,omitempty" json:"chars,omitempty"`
}

// String renders the spec for logs, e.g. "date_parse(license_issued,certificate_expiration_date)".
func (s Spec) String() string {
	var args []string
	args = append(args, s.targets()...)
	args = append(args, s.Columns...)
	if s.Target != "" {
		args = append(args, "->"+s.Target)
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(args, ","))
}

// targets returns Field followed by Fields.
func (s Spec) targets() []string {
	var out []string
	if s.Field != "" {
		out = append(out, s.Field)
	}
	for _, f := range s.Fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
