// Package caremap reconciles child-care provider records from several
// upstream feeds into one canonical, deduplicated batch.
//
// A run reads every configured source, renames its columns to the canonical
// schema, applies the source's normalization hooks, merges the sources and
// keeps one record per provider identity before handing the batch to a sink.
//
// Example usage:
//
//	m, err := manifest.Load("caremap.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := caremap.New(
//	    caremap.WithManifest(m),
//	    caremap.WithReader(local.New()),
//	    caremap.WithSink(sink.NewMemory()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := engine.Run(ctx)
package caremap

import (
	"context"
	"fmt"

	"github.com/agentstation/caremap/pkg/mapping"
)

// Engine runs the reconcile and dedup pipeline. Runs do not share state, so
// one Engine may run repeatedly or concurrently.
type Engine interface {
	// Run executes one batch pass and returns its result. The batch reaches
	// the sink in full or not at all.
	Run(ctx context.Context) (*Result, error)

	// OnSourceSkipped registers a callback for sources skipped for lack of a mapping
	OnSourceSkipped(SourceSkippedHook)

	// OnDuplicateDropped registers a callback for records removed as duplicates
	OnDuplicateDropped(DuplicateDroppedHook)

	// OnDiagnostic registers a callback for values nulled during normalization
	OnDiagnostic(DiagnosticHook)
}

// engine is the internal implementation of the Engine interface
type engine struct {
	config *config
	mapper *mapping.Mapper
	hooks  *hooks
}

// New creates an Engine with the given options.
func New(opts ...Option) (Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	return &engine{
		config: cfg,
		mapper: mapping.NewMapper(cfg.schema),
		hooks:  newHooks(),
	}, nil
}

// OnSourceSkipped implements Engine.
func (e *engine) OnSourceSkipped(fn SourceSkippedHook) { e.hooks.OnSourceSkipped(fn) }

// OnDuplicateDropped implements Engine.
func (e *engine) OnDuplicateDropped(fn DuplicateDroppedHook) { e.hooks.OnDuplicateDropped(fn) }

// OnDiagnostic implements Engine.
func (e *engine) OnDiagnostic(fn DiagnosticHook) { e.hooks.OnDiagnostic(fn) }
