// Package local reads source rows from delimited files on the local disk.
package local

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/sources"
)

// Reader reads CSV files from the local filesystem.
type Reader struct {
	comma rune
}

// Option configures a Reader.
type Option func(*Reader)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) Option {
	return func(rd *Reader) {
		rd.comma = r
	}
}

// New creates a local file reader.
func New(opts ...Option) *Reader {
	r := &Reader{comma: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements sources.Reader. Paths may be plain or file:// URLs.
func (r *Reader) Read(ctx context.Context, src sources.Descriptor) ([]sources.Record, error) {
	path := src.Path
	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, pkgerrors.WrapIO("open", path, err)
		}
		path = u.Path
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, pkgerrors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(ctx, f, src.ID, path, r.comma)
}

// Decode parses a CSV stream with a header row. Quoted fields may contain
// the delimiter, doubled quotes and newlines. A leading UTF-8 byte order
// mark is dropped. Rows shorter than the header leave the trailing columns
// absent; cells beyond the header are ignored.
func Decode(ctx context.Context, in io.Reader, id sources.ID, file string, comma rune) ([]sources.Record, error) {
	decoded := transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.WrapIO("read", file, fmt.Errorf("header: %w", err))
	}

	var out []sources.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.WrapIO("read", file, err)
		}
		line, _ := cr.FieldPos(0)

		values := make(map[string]string, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if _, dup := values[col]; dup {
				continue
			}
			values[col] = row[i]
		}

		out = append(out, sources.Record{
			Source: id,
			File:   file,
			Line:   line,
			Values: values,
		})
	}
	return out, nil
}
