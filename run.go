package caremap

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/logging"
	"github.com/agentstation/caremap/pkg/mapping"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
)

// run holds the state of a single Run call. Nothing in it outlives the call.
type run struct {
	*engine

	id       string
	loadTime time.Time
	meta     mapping.Meta

	// order maps a source to its position in the configured list
	order map[sources.ID]int

	mu          sync.Mutex
	diagnostics []Diagnostic
}

// prepared is one source after read, map and transform.
type prepared struct {
	desc    sources.Descriptor
	records []*schema.Record
	origins []origin
	skipped error
}

// origin locates a record in its raw source.
type origin struct {
	source sources.ID
	file   string
	line   int
}

func (e *engine) newRun() *run {
	loadTime := e.config.now().UTC()
	order := make(map[sources.ID]int, len(e.config.sources))
	for i, d := range e.config.sources {
		order[d.ID] = i
	}
	return &run{
		engine:   e,
		id:       uuid.NewString(),
		loadTime: loadTime,
		meta:     mapping.Meta{LoadTime: loadTime, Version: mapping.VersionNumber},
		order:    order,
	}
}

// Run implements Engine.
func (e *engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r := e.newRun()

	ctx = logging.WithLogger(ctx, e.config.logger)
	ctx = logging.WithRun(ctx, r.id)
	logger := logging.FromContext(ctx)

	logger.Info().
		Int("sources", len(e.config.sources)).
		Int("workers", e.config.workers).
		Int("partitions", e.config.partitions).
		Bool("dry_run", e.config.dryRun).
		Msg("Starting run")

	// Step 1: Read, map and transform every source
	sets, err := r.prepare(ctx)
	if err != nil {
		return nil, r.fail(logger, "prepare", err)
	}

	result := &Result{
		RunID:    r.id,
		LoadTime: r.loadTime,
		DryRun:   e.config.dryRun,
	}
	result.Stats.Sources = len(sets)

	// Step 2: Union into one batch shaped to the schema
	merged, origins := r.union(ctx, sets, result)

	// Step 3: Keep one record per provider identity
	survivors, err := r.dedup(ctx, merged, origins, result)
	if err != nil {
		return nil, r.fail(logger, "dedup", err)
	}
	result.Records = survivors

	result.Diagnostics = r.sortedDiagnostics()
	result.Stats.Diagnostics = len(result.Diagnostics)

	// Step 4: Hand the batch to the sink
	if !e.config.dryRun {
		if err := r.write(ctx, survivors); err != nil {
			return nil, r.fail(logger, "write", err)
		}
		result.Stats.Written = len(survivors)
	}

	result.Duration = time.Since(start)
	e.hooks.trigger(result)

	logger.Info().
		Object("stats", result.Stats).
		Dur("duration", result.Duration).
		Msg("Run completed")

	return result, nil
}

// fail logs a fatal stage error and returns it unchanged.
func (r *run) fail(logger *zerolog.Logger, stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn().Err(err).Str("stage", stage).Msg("Run canceled")
		return errors.Join(pkgerrors.ErrCanceled, err)
	}
	logger.Error().Err(err).Str("stage", stage).Msg("Run failed")
	return err
}

// record adds diagnostics raised for one record.
func (r *run) record(at origin, errs []error) {
	if len(errs) == 0 {
		return
	}
	out := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, diagnosticOf(at, err))
	}
	r.mu.Lock()
	r.diagnostics = append(r.diagnostics, out...)
	r.mu.Unlock()
}

func (r *run) sortedDiagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Diagnostic(nil), r.diagnostics...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if oa, ob := r.order[a.Source], r.order[b.Source]; oa != ob {
			return oa < ob
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Field < b.Field
	})
	return out
}

func diagnosticOf(at origin, err error) Diagnostic {
	d := Diagnostic{
		Source:  at.source,
		File:    at.file,
		Line:    at.line,
		Message: err.Error(),
	}
	var pe *pkgerrors.ParseError
	if errors.As(err, &pe) {
		d.Field = pe.Field
		d.Value = pe.Value
		d.Message = pe.Message
		if d.Message == "" {
			d.Message = "cannot parse as " + pe.Kind
		}
	}
	return d
}
