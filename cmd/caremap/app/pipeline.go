package app

import (
	"context"
	"io"
	"path/filepath"

	"github.com/agentstation/caremap"
	"github.com/agentstation/caremap/internal/cmd/output"
	"github.com/agentstation/caremap/internal/sinks/postgres"
	"github.com/agentstation/caremap/internal/sources/local"
	"github.com/agentstation/caremap/internal/sources/objectstore"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/manifest"
	"github.com/agentstation/caremap/pkg/sink"
	"github.com/agentstation/caremap/pkg/sources"
)

// runOptions are the run command's flags.
type runOptions struct {
	manifest   string
	dryRun     bool
	workers    int
	partitions int
	sinkPath   string
}

// loadManifest reads the manifest named by path or, failing that, by config.
func (a *App) loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		path = a.config.Manifest
	}
	if path == "" {
		return nil, pkgerrors.NewValidationError("manifest", nil, "no manifest given; use --manifest or CAREMAP_MANIFEST")
	}
	return manifest.Load(path)
}

// newReader dispatches local paths to the CSV reader and s3:// URLs to the
// object store.
func (a *App) newReader() *sources.Mux {
	mux := sources.NewMux()
	mux.Register("", local.New())
	mux.Register("s3", sources.ReaderFunc(a.readObject))
	return mux
}

// readObject connects to the object store on first use so runs without
// s3:// sources need no credentials.
func (a *App) readObject(ctx context.Context, src sources.Descriptor) ([]sources.Record, error) {
	a.mu.Lock()
	if a.objects == nil {
		client, err := objectstore.NewClient(a.config.ObjectStore)
		if err != nil {
			a.mu.Unlock()
			return nil, err
		}
		a.objects = objectstore.New(client)
	}
	r := a.objects
	a.mu.Unlock()

	return r.Read(ctx, src)
}

// newSink builds the manifest's sink.
func (a *App) newSink(ctx context.Context, m *manifest.Manifest) (sink.Sink, error) {
	switch m.Sink.Kind {
	case manifest.SinkPostgres:
		dsn := m.Sink.DSN
		if dsn == "" {
			dsn = a.config.DatabaseURL
		}
		pool, err := a.postgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		mode, _ := sink.ParseMode(m.Sink.Mode)
		return postgres.New(pool,
			postgres.WithTable(m.Sink.Table),
			postgres.WithMode(mode),
			postgres.WithCreateTable(true),
		)

	case manifest.SinkFile:
		return sink.NewFile(m.Resolve(m.Sink.Path), sink.Encoding(m.Sink.Format), nil)

	default:
		format := output.Format(m.Sink.Format)
		if format == "" {
			format = output.FormatJSON
		}
		return sink.NewWriter(a.stdout, output.NewFormatter(format), nil), nil
	}
}

// postgres returns the shared pool, opening it on first use.
func (a *App) postgres(ctx context.Context, dsn string) (postgres.Beginner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool == nil {
		pool, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}
	return a.pool, nil
}

// runPipeline executes one run as the run command's flags describe.
func (a *App) runPipeline(ctx context.Context, opts runOptions) (*caremap.Result, *manifest.Manifest, error) {
	m, err := a.loadManifest(opts.manifest)
	if err != nil {
		return nil, nil, err
	}

	if opts.sinkPath != "" {
		path, err := filepath.Abs(opts.sinkPath)
		if err != nil {
			return nil, nil, err
		}
		m.Sink = manifest.Sink{Kind: manifest.SinkFile, Path: path}
	}

	engineOpts := []caremap.Option{
		caremap.WithManifest(m),
		caremap.WithReader(a.newReader()),
		caremap.WithLogger(a.logger),
		caremap.WithDryRun(opts.dryRun),
	}
	if opts.workers > 0 {
		engineOpts = append(engineOpts, caremap.WithWorkers(opts.workers))
	}
	if opts.partitions > 0 {
		engineOpts = append(engineOpts, caremap.WithPartitions(opts.partitions))
	}
	if !opts.dryRun {
		s, err := a.newSink(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		engineOpts = append(engineOpts, caremap.WithSink(s))
	}

	engine, err := caremap.New(engineOpts...)
	if err != nil {
		return nil, nil, err
	}

	engine.OnSourceSkipped(func(id sources.ID, reason error) {
		a.logger.Warn().Str("source", id.String()).Err(reason).Msg("Source skipped")
	})

	result, err := engine.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, m, nil
}

// reportWriter is where run summaries go. Standard output is left to the
// batch when the batch itself is written there.
func (a *App) reportWriter(m *manifest.Manifest, dryRun bool) io.Writer {
	if m.Sink.Kind == manifest.SinkStdout && !dryRun {
		return a.stderr
	}
	return a.stdout
}
