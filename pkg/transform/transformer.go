package transform

import (
	"fmt"
	"maps"
	"slices"

	"github.com/agentstation/caremap/pkg/constants"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// DefaultDatePattern is the date pattern used when a run names none.
const DefaultDatePattern = constants.DefaultDatePattern

// SourceHooks declares the hooks of one source.
type SourceHooks struct {
	Hooks []Spec
	// ReplaceDefaults drops the shared default hooks for this source.
	ReplaceDefaults bool
}

// Plan is the declarative hook configuration of a run.
type Plan struct {
	// DatePattern is a Java style pattern such as "M/d/yy".
	DatePattern string
	// Defaults run first for every source unless the source replaces them.
	Defaults []Spec
	// Sources holds the per-source hooks, which run after the defaults.
	Sources map[sources.ID]SourceHooks
}

// Transformer holds the resolved hook chain of every source. It is
// read-only once built and safe for concurrent use.
type Transformer struct {
	pattern  string
	defaults Chain
	chains   map[sources.ID]Chain
}

// NewTransformer resolves a plan against a registry. A nil registry means
// the built-in hooks.
func NewTransformer(reg *Registry, plan Plan) (*Transformer, error) {
	if reg == nil {
		reg = NewRegistry()
	}

	pattern := plan.DatePattern
	if pattern == "" {
		pattern = DefaultDatePattern
	}
	layout, err := JavaLayout(pattern)
	if err != nil {
		return nil, pkgerrors.WrapValidation("date_pattern", err)
	}
	env := Env{DateLayout: layout}

	defaults, err := reg.BuildChain(plan.Defaults, env)
	if err != nil {
		return nil, fmt.Errorf("default hooks: %w", err)
	}

	t := &Transformer{
		pattern:  pattern,
		defaults: defaults,
		chains:   make(map[sources.ID]Chain, len(plan.Sources)),
	}

	for _, id := range slices.Sorted(maps.Keys(plan.Sources)) {
		sh := plan.Sources[id]
		own, err := reg.BuildChain(sh.Hooks, env)
		if err != nil {
			return nil, pkgerrors.WrapConfiguration(id.String(), err)
		}
		var chain Chain
		if !sh.ReplaceDefaults {
			chain = append(chain, defaults...)
		}
		t.chains[id] = append(chain, own...)
	}

	return t, nil
}

// DatePattern returns the run's date pattern.
func (t *Transformer) DatePattern() string { return t.pattern }

// Chain returns the hooks of a source. A source without its own entry gets
// the defaults.
func (t *Transformer) Chain(id sources.ID) Chain {
	if c, ok := t.chains[id]; ok {
		return c
	}
	return t.defaults
}

// Apply runs the source's chain over rec and returns its diagnostics.
func (t *Transformer) Apply(id sources.ID, rec *schema.Record) []error {
	return t.Chain(id).Apply(rec)
}
