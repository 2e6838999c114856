package transform

import (
	"strings"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
)

// Defaults used when a spec leaves a parameter empty.
const (
	DefaultSentinel  = "Y"
	DefaultStripSet  = `"`
	defaultAgeTarget = schema.FieldAgesServed
)

func requireTargets(spec Spec) ([]string, error) {
	fields := spec.targets()
	if len(fields) == 0 {
		return nil, pkgerrors.NewValidationError("fields", nil, spec.Name+" needs at least one field")
	}
	return fields, nil
}

func requireColumns(spec Spec) ([]string, error) {
	if len(spec.Columns) == 0 {
		return nil, pkgerrors.NewValidationError("columns", nil, spec.Name+" needs at least one column")
	}
	return spec.Columns, nil
}

// textOf returns a column's text and whether it holds a non-null value.
func textOf(rec *schema.Record, name string) (string, bool) {
	v, ok := rec.Column(name)
	if !ok || v.IsNull() {
		return "", false
	}
	return v.Text(), true
}

// mapText rewrites every non-null target as text.
func mapText(name string, fields []string, fn func(string) string) Hook {
	return HookFunc{HookName: name, Fn: func(rec *schema.Record) error {
		for _, f := range fields {
			if text, ok := textOf(rec, f); ok {
				rec.SetColumn(f, schema.String(fn(text)))
			}
		}
		return nil
	}}
}

func newPhoneNormalize(spec Spec, _ Env) (Hook, error) {
	fields := spec.targets()
	if len(fields) == 0 {
		fields = []string{schema.FieldPhone}
	}
	return mapText(HookPhoneNormalize, fields, NormalizePhone), nil
}

func newTrim(spec Spec, _ Env) (Hook, error) {
	fields, err := requireTargets(spec)
	if err != nil {
		return nil, err
	}
	return mapText(HookTrim, fields, strings.TrimSpace), nil
}

func newStripChars(spec Spec, _ Env) (Hook, error) {
	fields, err := requireTargets(spec)
	if err != nil {
		return nil, err
	}
	chars := orDefault(spec.Chars, DefaultStripSet)
	return mapText(HookStripChars, fields, func(s string) string {
		return StripChars(s, chars)
	}), nil
}

func newNameSplit(spec Spec, _ Env) (Hook, error) {
	field := orDefault(spec.Field, schema.FieldLicenseeName)
	first := orDefault(spec.First, schema.FieldFirstName)
	last := orDefault(spec.Last, schema.FieldLastName)

	return HookFunc{HookName: HookNameSplit, Fn: func(rec *schema.Record) error {
		text, ok := textOf(rec, field)
		if !ok {
			return nil
		}
		trimmed, f, l := SplitName(text)
		rec.SetColumn(field, schema.String(trimmed))
		rec.SetColumn(first, schema.String(f))
		rec.SetColumn(last, schema.String(l))
		return nil
	}}, nil
}

func newDateParse(spec Spec, env Env) (Hook, error) {
	fields, err := requireTargets(spec)
	if err != nil {
		return nil, err
	}
	if env.DateLayout == "" {
		return nil, pkgerrors.NewValidationError("date_pattern", nil, "date_parse needs a run date pattern")
	}
	layout := env.DateLayout

	return HookFunc{HookName: HookDateParse, Fn: func(rec *schema.Record) error {
		var errs []error
		for _, f := range fields {
			v, ok := rec.Column(f)
			if !ok || v.Kind() == schema.KindDate {
				continue
			}
			if v.IsNull() {
				rec.SetColumn(f, schema.Null(schema.KindDate))
				continue
			}
			day, err := ParseDate(v.Text(), layout)
			if err != nil {
				rec.SetColumn(f, schema.Null(schema.KindDate))
				errs = append(errs, pkgerrors.NewParseError(f, v.Text(), schema.KindDate.String(), err))
				continue
			}
			rec.SetColumn(f, schema.Date(day))
		}
		return join(errs)
	}}, nil
}

func newNumericCoerce(spec Spec, _ Env) (Hook, error) {
	fields, err := requireTargets(spec)
	if err != nil {
		return nil, err
	}

	return HookFunc{HookName: HookNumericCoerce, Fn: func(rec *schema.Record) error {
		var errs []error
		for _, f := range fields {
			v, ok := rec.Column(f)
			if !ok || v.Kind() == schema.KindInteger {
				continue
			}
			if v.IsNull() {
				rec.SetColumn(f, schema.Null(schema.KindInteger))
				continue
			}
			n, err := CoerceInteger(v.Text())
			if err != nil {
				rec.SetColumn(f, schema.Null(schema.KindInteger))
				errs = append(errs, pkgerrors.NewParseError(f, v.Text(), schema.KindInteger.String(), err))
				continue
			}
			rec.SetColumn(f, schema.Integer(n))
		}
		return join(errs)
	}}, nil
}

// consolidate writes the combined label into target and drops the listed
// columns. When none of the columns holds a value the target is only filled
// with "" if it is still null, which keeps a second application a no-op.
func consolidate(name string, columns []string, target string, combine func(texts []string) string) Hook {
	return HookFunc{HookName: name, Fn: func(rec *schema.Record) error {
		texts := make([]string, len(columns))
		present := false
		for i, c := range columns {
			if text, ok := textOf(rec, c); ok {
				texts[i] = text
				present = true
			}
		}

		if present {
			rec.SetColumn(target, schema.String(combine(texts)))
		} else if v, ok := rec.Column(target); !ok || v.IsNull() {
			rec.SetColumn(target, schema.String(""))
		}

		for _, c := range columns {
			if c != target {
				rec.DropColumn(c)
			}
		}
		return nil
	}}
}

func newAgeConsolidateValues(spec Spec, _ Env) (Hook, error) {
	columns, err := requireColumns(spec)
	if err != nil {
		return nil, err
	}
	target := orDefault(spec.Target, defaultAgeTarget)
	return consolidate(HookAgeConsolidateValues, columns, target, ConsolidateValues), nil
}

func newAgeConsolidateFlags(spec Spec, _ Env) (Hook, error) {
	columns, err := requireColumns(spec)
	if err != nil {
		return nil, err
	}
	target := orDefault(spec.Target, defaultAgeTarget)
	sentinel := orDefault(spec.Sentinel, DefaultSentinel)
	return consolidate(HookAgeConsolidateFlags, columns, target, func(flags []string) string {
		return ConsolidateFlags(columns, flags, sentinel)
	}), nil
}
