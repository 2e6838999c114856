package transform

import (
	"fmt"
	"slices"
	"sync"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
)

// Env carries run-wide settings hooks are built with.
type Env struct {
	// DateLayout is the Go layout every date_parse hook uses.
	DateLayout string
}

// Factory builds a hook from its spec.
type Factory func(spec Spec, env Env) (Hook, error)

// Registry resolves hook names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Built-in hook names.
const (
	HookPhoneNormalize       = "phone_normalize"
	HookNameSplit            = "name_split"
	HookDateParse            = "date_parse"
	HookNumericCoerce        = "numeric_coerce"
	HookAgeConsolidateValues = "age_consolidate_values"
	HookAgeConsolidateFlags  = "age_consolidate_flags"
	HookStripChars           = "strip_chars"
	HookTrim                 = "trim"
)

// NewRegistry returns a registry holding the built-in hooks.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(HookPhoneNormalize, newPhoneNormalize)
	r.Register(HookNameSplit, newNameSplit)
	r.Register(HookDateParse, newDateParse)
	r.Register(HookNumericCoerce, newNumericCoerce)
	r.Register(HookAgeConsolidateValues, newAgeConsolidateValues)
	r.Register(HookAgeConsolidateFlags, newAgeConsolidateFlags)
	r.Register(HookStripChars, newStripChars)
	r.Register(HookTrim, newTrim)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the sorted registered hook names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Build resolves one spec into a hook.
func (r *Registry) Build(spec Spec, env Env) (Hook, error) {
	r.mu.RLock()
	f, ok := r.factories[spec.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewValidationError("name", spec.Name, fmt.Sprintf("unknown hook %q", spec.Name))
	}
	h, err := f(spec, env)
	if err != nil {
		return nil, fmt.Errorf("building hook %s: %w", spec, err)
	}
	return h, nil
}

// BuildChain resolves specs in order.
func (r *Registry) BuildChain(specs []Spec, env Env) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, spec := range specs {
		h, err := r.Build(spec, env)
		if err != nil {
			return nil, fmt.Errorf("hook %d: %w", i, err)
		}
		chain = append(chain, h)
	}
	return chain, nil
}
