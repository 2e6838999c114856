package sources

import (
	"context"
	"maps"
	"path"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
)

// Static is an in-memory Reader keyed by source id. It is used by tests and
// by callers that already hold their rows.
type Static map[ID][]map[string]string

// Read returns copies of the rows registered for the source. Line numbers
// start at 2 to match a file with a header row.
func (s Static) Read(ctx context.Context, src Descriptor) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := s[src.ID]
	if !ok {
		return nil, pkgerrors.NewIOError("read", src.Path, pkgerrors.NewNotFoundError("source", src.ID.String()))
	}

	file := src.Path
	if file == "" {
		file = path.Join("memory", src.ID.String()+".csv")
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = Record{
			Source: src.ID,
			File:   file,
			Line:   i + 2,
			Values: maps.Clone(row),
		}
	}
	return out, nil
}
