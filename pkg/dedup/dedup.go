// Package dedup collapses records that describe the same provider.
//
// Records are grouped by identity key (phone digits, address1). Within a
// group the record with the latest license_issued survives; a null date
// ranks last and an exact tie goes to the record that came first in the
// input. Records without a usable key pass through untouched.
//
// The work is a scatter/gather: keys are hashed into partitions, each
// partition is ranked by its own goroutine, and the survivors are gathered
// back into input order.
package dedup

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/caremap/pkg/schema"
)

// Option configures a Deduplicator.
type Option func(*Deduplicator) error

// WithPartitions sets how many partitions the keys are hashed into.
func WithPartitions(n int) Option {
	return func(d *Deduplicator) error {
		if n < 1 {
			return fmt.Errorf("partitions must be positive, got %d", n)
		}
		d.partitions = n
		return nil
	}
}

// WithRankField sets the date field groups are ranked by.
func WithRankField(name string) Option {
	return func(d *Deduplicator) error {
		if name == "" {
			return fmt.Errorf("rank field cannot be empty")
		}
		d.rankField = name
		return nil
	}
}

// Deduplicator keeps one survivor per identity group. It holds no per-run
// state and may be shared.
type Deduplicator struct {
	partitions int
	rankField  string
}

// New creates a Deduplicator. The default is one partition per CPU, ranked
// by license_issued.
func New(opts ...Option) (*Deduplicator, error) {
	d := &Deduplicator{
		partitions: runtime.GOMAXPROCS(0),
		rankField:  schema.FieldLicenseIssued,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("applying dedup option: %w", err)
		}
	}
	return d, nil
}

// Partitions returns the partition count.
func (d *Deduplicator) Partitions() int { return d.partitions }

// Drop records a record removed as a duplicate.
type Drop struct {
	Index  int // input position of the dropped record
	Winner int // input position of the survivor that beat it
	Key    Key
}

// Result is the outcome of one Apply.
type Result struct {
	// Survivors are the kept records in input order.
	Survivors []*schema.Record
	// Kept holds the input position of each survivor.
	Kept []int
	// Dropped lists removed duplicates ordered by input position.
	Dropped []Drop
	// Groups is the number of distinct identity keys.
	Groups int
	// Unkeyed is the number of records without a usable identity.
	Unkeyed int
}

type partition struct {
	indices []int
	kept    []int
	dropped []Drop
	groups  int
}

// Apply deduplicates records. The input slice is not modified.
func (d *Deduplicator) Apply(ctx context.Context, records []*schema.Record) (*Result, error) {
	parts := make([]partition, d.partitions)
	keys := make([]Key, len(records))
	var unkeyed []int

	for i, rec := range records {
		k, ok := KeyOf(rec)
		if !ok {
			unkeyed = append(unkeyed, i)
			continue
		}
		keys[i] = k
		p := int(hashKey(k) % uint64(d.partitions))
		parts[p].indices = append(parts[p].indices, i)
	}

	g, ctx := errgroup.WithContext(ctx)
	for p := range parts {
		part := &parts[p]
		if len(part.indices) == 0 {
			continue
		}
		g.Go(func() error {
			return d.rank(ctx, records, keys, part)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Unkeyed: len(unkeyed)}
	kept := unkeyed
	for _, part := range parts {
		kept = append(kept, part.kept...)
		res.Dropped = append(res.Dropped, part.dropped...)
		res.Groups += part.groups
	}
	slices.Sort(kept)
	slices.SortFunc(res.Dropped, func(a, b Drop) int { return a.Index - b.Index })

	res.Kept = kept
	res.Survivors = make([]*schema.Record, len(kept))
	for i, idx := range kept {
		res.Survivors[i] = records[idx]
	}
	return res, nil
}

// rank picks the survivor of every group in one partition. Indices arrive
// in ascending order, so a later member only wins with a strictly better date.
func (d *Deduplicator) rank(ctx context.Context, records []*schema.Record, keys []Key, part *partition) error {
	groups := make(map[Key][]int)
	var order []Key
	for _, i := range part.indices {
		k := keys[i]
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	part.groups = len(order)

	for n, k := range order {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		members := groups[k]
		best := members[0]
		bestAt, bestOK := d.rankOf(records[best])
		for _, i := range members[1:] {
			at, ok := d.rankOf(records[i])
			if ok && (!bestOK || at.After(bestAt)) {
				best, bestAt, bestOK = i, at, ok
			}
		}
		part.kept = append(part.kept, best)
		for _, i := range members {
			if i != best {
				part.dropped = append(part.dropped, Drop{Index: i, Winner: best, Key: k})
			}
		}
	}
	return nil
}

func (d *Deduplicator) rankOf(rec *schema.Record) (time.Time, bool) {
	return rec.Get(d.rankField).Time()
}
