// Package transform runs per-source normalization hooks over canonical
// records.
//
// Hooks are named, parameterized steps (phone cleanup, name splitting, date
// parsing, numeric coercion, age-column consolidation) declared as data in a
// Spec and resolved through a Registry. Each source gets an ordered Chain of
// hooks, so onboarding a new feed is a configuration change only.
//
// Hooks never fail a record. A value that cannot be normalized becomes null
// and the hook returns a *errors.ParseError describing it; callers collect
// those as diagnostics.
package transform

import (
	"errors"

	"github.com/agentstation/caremap/pkg/schema"
)

// Hook is one normalization step. Apply mutates rec in place and must be
// idempotent. Any returned error is a non-fatal diagnostic.
type Hook interface {
	Name() string
	Apply(rec *schema.Record) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc struct {
	HookName string
	Fn       func(rec *schema.Record) error
}

// Name returns the hook name.
func (h HookFunc) Name() string { return h.HookName }

// Apply calls the function.
func (h HookFunc) Apply(rec *schema.Record) error { return h.Fn(rec) }

// Chain is an ordered list of hooks.
type Chain []Hook

// Names returns the hook names in order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, h := range c {
		out[i] = h.Name()
	}
	return out
}

// Apply runs every hook in order and returns the diagnostics they reported,
// one error per failed value.
func (c Chain) Apply(rec *schema.Record) []error {
	var diags []error
	for _, h := range c {
		diags = append(diags, flatten(h.Apply(rec))...)
	}
	return diags
}

// flatten splits an errors.Join result into its parts.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// join is errors.Join that drops nils and keeps single errors unwrapped.
func join(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
