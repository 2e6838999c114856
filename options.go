package caremap

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/logging"
	"github.com/agentstation/caremap/pkg/manifest"
	"github.com/agentstation/caremap/pkg/mapping"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sink"
	"github.com/agentstation/caremap/pkg/sources"
	"github.com/agentstation/caremap/pkg/transform"
)

// Option is a function that configures an Engine
type Option func(*config) error

// config holds the read-only configuration shared by every run
type config struct {
	schema      *schema.Schema
	table       *mapping.Table
	transformer *transform.Transformer
	plan        *transform.Plan
	registry    *transform.Registry
	manifest    *manifest.Manifest
	reader      sources.Reader
	sink        sink.Sink
	sources     []sources.Descriptor
	workers     int
	partitions  int
	explicit    map[string]bool
	logger      *zerolog.Logger
	now         func() time.Time
	dryRun      bool
}

func defaultConfig() *config {
	return &config{
		schema:     schema.Canonical(),
		workers:    runtime.GOMAXPROCS(0),
		partitions: runtime.GOMAXPROCS(0),
		now:        time.Now,
		explicit:   make(map[string]bool),
	}
}

// resolve fills values derived from other options and checks that the
// engine can run.
func (c *config) resolve() error {
	if m := c.manifest; m != nil {
		if c.table == nil {
			table, err := m.Table(c.schema)
			if err != nil {
				return fmt.Errorf("loading column map: %w", err)
			}
			c.table = table
		}
		if c.plan == nil && c.transformer == nil {
			plan := m.Plan()
			c.plan = &plan
		}
		if len(c.sources) == 0 {
			c.sources = m.Descriptors()
		}
		if m.Workers > 0 && !c.explicit["workers"] {
			c.workers = m.Workers
		}
		if m.Partitions > 0 && !c.explicit["partitions"] {
			c.partitions = m.Partitions
		}
	}

	if c.transformer == nil {
		plan := transform.Plan{}
		if c.plan != nil {
			plan = *c.plan
		}
		tr, err := transform.NewTransformer(c.registry, plan)
		if err != nil {
			return fmt.Errorf("building hooks: %w", err)
		}
		c.transformer = tr
	}

	if c.logger == nil {
		c.logger = logging.Default()
	}

	switch {
	case c.table == nil:
		return pkgerrors.NewValidationError("mapping", nil, "a column map table is required")
	case c.reader == nil:
		return pkgerrors.NewValidationError("reader", nil, "a source reader is required")
	case len(c.sources) == 0:
		return pkgerrors.NewValidationError("sources", nil, "at least one source is required")
	case c.sink == nil && !c.dryRun:
		return pkgerrors.NewValidationError("sink", nil, "a sink is required unless running dry")
	}
	return nil
}

// WithManifest takes the column map, hooks, sources, workers and partitions
// from a loaded manifest. Explicit options win over manifest values.
func WithManifest(m *manifest.Manifest) Option {
	return func(c *config) error {
		if m == nil {
			return fmt.Errorf("manifest cannot be nil")
		}
		c.manifest = m
		return nil
	}
}

// WithSchema sets the target schema. The default is the canonical provider schema.
func WithSchema(s *schema.Schema) Option {
	return func(c *config) error {
		if s == nil {
			return fmt.Errorf("schema cannot be nil")
		}
		c.schema = s
		return nil
	}
}

// WithMappingTable sets the column map table.
func WithMappingTable(t *mapping.Table) Option {
	return func(c *config) error {
		c.table = t
		return nil
	}
}

// WithPlan sets the declarative hook plan.
func WithPlan(p transform.Plan) Option {
	return func(c *config) error {
		c.plan = &p
		return nil
	}
}

// WithRegistry sets the hook registry plans are resolved against.
func WithRegistry(r *transform.Registry) Option {
	return func(c *config) error {
		c.registry = r
		return nil
	}
}

// WithTransformer sets pre-built hook chains, overriding any plan.
func WithTransformer(t *transform.Transformer) Option {
	return func(c *config) error {
		c.transformer = t
		return nil
	}
}

// WithReader sets the source reader.
func WithReader(r sources.Reader) Option {
	return func(c *config) error {
		c.reader = r
		return nil
	}
}

// WithSink sets where the final batch is written.
func WithSink(s sink.Sink) Option {
	return func(c *config) error {
		c.sink = s
		return nil
	}
}

// WithSources sets the sources to read, in merge order.
func WithSources(descs ...sources.Descriptor) Option {
	return func(c *config) error {
		seen := make(map[sources.ID]bool, len(descs))
		for _, d := range descs {
			if seen[d.ID] {
				return pkgerrors.NewValidationError("sources", d.ID.String(), "duplicate source id")
			}
			seen[d.ID] = true
		}
		c.sources = descs
		return nil
	}
}

// WithWorkers bounds how many sources, and records within a source, are
// prepared at once.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		c.workers = n
		c.explicit["workers"] = true
		return nil
	}
}

// WithPartitions sets the dedup partition count.
func WithPartitions(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("partitions must be positive, got %d", n)
		}
		c.partitions = n
		c.explicit["partitions"] = true
		return nil
	}
}

// WithLogger sets the logger runs derive their loggers from.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithClock sets the function that supplies the run load time.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithDryRun runs every stage but skips the sink.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}
