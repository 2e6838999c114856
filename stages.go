package caremap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/caremap/pkg/dedup"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/logging"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sources"
	"github.com/agentstation/caremap/pkg/union"
)

// prepare reads, maps and transforms every source. Sources are worked on
// concurrently but the result keeps the configured order. A source without
// a mapping is skipped; any other failure aborts the run.
func (r *run) prepare(ctx context.Context) ([]prepared, error) {
	descs := r.config.sources
	out := make([]prepared, len(descs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.workers)
	for i, desc := range descs {
		g.Go(func() error {
			p, err := r.prepareSource(gctx, desc)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *run) prepareSource(ctx context.Context, desc sources.Descriptor) (prepared, error) {
	ctx = logging.WithSource(ctx, desc.ID.String())
	logger := logging.FromContext(ctx)
	p := prepared{desc: desc}

	// The mapping is checked first so an unmapped source is never read.
	if _, err := r.config.table.Lookup(desc.ID); err != nil {
		if pkgerrors.IsConfigurationError(err) {
			logger.Warn().Err(err).Str("path", desc.Path).Msg("Skipping source")
			p.skipped = err
			return p, nil
		}
		return p, err
	}

	raw, err := r.config.reader.Read(ctx, desc)
	if err != nil {
		return p, fmt.Errorf("reading source %s: %w", desc.ID, err)
	}
	logger.Debug().Int("records", len(raw)).Str("path", desc.Path).Msg("Read source")

	p.records = make([]*schema.Record, len(raw))
	p.origins = make([]origin, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.workers)
	size := chunkSize(len(raw), r.config.workers)
	for lo := 0; lo < len(raw); lo += size {
		hi := min(lo+size, len(raw))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := r.mapper.MapRecord(raw[i], r.config.table, desc.ID, r.meta)
				if err != nil {
					return err
				}
				at := origin{source: desc.ID, file: raw[i].File, line: raw[i].Line}
				if at.file == "" {
					at.file = desc.Path
				}
				r.record(at, r.config.transformer.Apply(desc.ID, rec))
				p.records[i] = rec
				p.origins[i] = at
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return p, fmt.Errorf("preparing source %s: %w", desc.ID, err)
	}
	return p, nil
}

// chunkSize splits n records into at most workers chunks.
func chunkSize(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	return max(size, 1)
}

// union merges the prepared sources and returns the batch with the origin
// of each record at the same index.
func (r *run) union(ctx context.Context, ps []prepared, result *Result) ([]*schema.Record, []origin) {
	logger := logging.FromContext(logging.WithStage(ctx, "union"))

	sets := make([]union.Set, 0, len(ps))
	origins := make([][]origin, 0, len(ps))
	paths := make(map[sources.ID]string, len(ps))
	read := make(map[sources.ID]int, len(ps))
	for _, p := range ps {
		if p.skipped != nil {
			result.Skipped = append(result.Skipped, Skipped{Source: p.desc.ID, Path: p.desc.Path, Reason: p.skipped})
			continue
		}
		sets = append(sets, union.Set{Source: p.desc.ID, Records: p.records})
		origins = append(origins, p.origins)
		paths[p.desc.ID] = p.desc.Path
		read[p.desc.ID] = len(p.records)
		result.Stats.Read += len(p.records)
	}
	result.Stats.Skipped = len(result.Skipped)

	merged, report := union.Merge(r.mapper.Schema(), sets...)

	flat := make([]origin, 0, len(merged))
	for _, o := range origins {
		flat = append(flat, o...)
	}

	setIndex := make(map[sources.ID]int, len(sets))
	for i, s := range sets {
		setIndex[s.Source] = i
	}
	for _, d := range report.Diagnostics {
		r.record(origins[setIndex[d.Source]][d.Index], []error{d.Err})
	}

	for _, sr := range report.Sources {
		result.Sources = append(result.Sources, SourceSummary{
			Source:  sr.Source,
			Path:    paths[sr.Source],
			Read:    read[sr.Source],
			Merged:  sr.Records,
			Padded:  sr.Padded,
			Dropped: sr.Dropped,
		})
	}
	result.Stats.Merged = len(merged)

	logger.Info().
		Int("sets", len(sets)).
		Int("records", len(merged)).
		Int("skipped", len(result.Skipped)).
		Msg("Merged sources")

	return merged, flat
}

// dedup keeps one record per identity and records every drop.
func (r *run) dedup(ctx context.Context, merged []*schema.Record, origins []origin, result *Result) ([]*schema.Record, error) {
	logger := logging.FromContext(logging.WithStage(ctx, "dedup"))

	d, err := dedup.New(dedup.WithPartitions(r.config.partitions))
	if err != nil {
		return nil, err
	}
	res, err := d.Apply(ctx, merged)
	if err != nil {
		return nil, err
	}

	kept := make(map[sources.ID]int, len(result.Sources))
	for _, i := range res.Kept {
		kept[origins[i].source]++
	}
	for i := range result.Sources {
		result.Sources[i].Kept = kept[result.Sources[i].Source]
	}

	result.Duplicates = make([]Duplicate, 0, len(res.Dropped))
	for _, drop := range res.Dropped {
		dropped, winner := origins[drop.Index], origins[drop.Winner]
		result.Duplicates = append(result.Duplicates, Duplicate{
			Key:           drop.Key,
			DroppedSource: dropped.source,
			DroppedLine:   dropped.line,
			WinnerSource:  winner.source,
			WinnerLine:    winner.line,
		})
		logger.Debug().
			Stringer("key", drop.Key).
			Str("dropped", fmt.Sprintf("%s:%d", dropped.source, dropped.line)).
			Str("winner", fmt.Sprintf("%s:%d", winner.source, winner.line)).
			Msg("Dropped duplicate")
	}

	result.Stats.Groups = res.Groups
	result.Stats.Duplicates = len(res.Dropped)
	result.Stats.Unkeyed = res.Unkeyed

	logger.Info().
		Int("partitions", d.Partitions()).
		Int("survivors", len(res.Survivors)).
		Int("duplicates", len(res.Dropped)).
		Int("unkeyed", res.Unkeyed).
		Msg("Deduplicated batch")

	return res.Survivors, nil
}

// write hands the batch to the sink. Any failure is fatal for the run.
func (r *run) write(ctx context.Context, records []*schema.Record) error {
	logger := logging.FromContext(logging.WithStage(ctx, "write"))
	s := r.config.sink

	if err := s.Write(ctx, records); err != nil {
		if !pkgerrors.IsSinkError(err) {
			err = pkgerrors.WrapSink(s.Name(), "", len(records), err)
		}
		return err
	}

	logger.Info().Str("sink", s.Name()).Int("records", len(records)).Msg("Wrote batch")
	return nil
}
