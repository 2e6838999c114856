// Package sources defines the contract between the engine and the readers
// that supply raw provider rows.
//
// A reader turns one Descriptor (a source id and a location) into a slice of
// Records, each a column-name to string mapping as delivered by the upstream
// feed. Readers are registered on a Mux by location scheme so that local
// paths and object-store URLs can be mixed in one run.
//
// Example usage:
//
//	mux := sources.NewMux()
//	mux.Register("", csvfile.New())
//	mux.Register("s3", objectstore.New(client))
//
//	records, err := mux.Read(ctx, sources.Descriptor{ID: "source1", Path: "data/source1.csv"})
package sources

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
)

// ID identifies one upstream feed, for example "source1".
type ID string

// String returns the string representation of a source id.
func (id ID) String() string {
	return string(id)
}

// Descriptor locates the input of one source.
type Descriptor struct {
	ID   ID
	Path string
}

// Scheme returns the lower-cased URL scheme of the path, or "" for local paths.
func (d Descriptor) Scheme() string {
	u, err := url.Parse(d.Path)
	if err != nil || len(u.Scheme) < 2 {
		// Windows drive letters parse as one-letter schemes.
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Record is one raw row. A column that is absent or holds "" is null.
type Record struct {
	Source ID
	File   string
	Line   int
	Values map[string]string
}

// Value returns a column and whether it is non-null.
func (r Record) Value(column string) (string, bool) {
	v, ok := r.Values[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Columns returns the sorted column names present in the record.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r.Values))
	for c := range r.Values {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// Reader supplies the raw records of one source.
type Reader interface {
	Read(ctx context.Context, src Descriptor) ([]Record, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, src Descriptor) ([]Record, error)

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, src Descriptor) ([]Record, error) {
	return f(ctx, src)
}

// Mux is a thread-safe Reader that dispatches on the path scheme.
type Mux struct {
	mu      sync.RWMutex
	readers map[string]Reader
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{
		readers: make(map[string]Reader),
	}
}

// Register sets the reader for a scheme. Use "" for local paths.
func (m *Mux) Register(scheme string, r Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers[strings.ToLower(scheme)] = r
}

// Get returns the reader registered for a scheme.
func (m *Mux) Get(scheme string) (Reader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.readers[strings.ToLower(scheme)]
	return r, ok
}

// Schemes returns the sorted registered schemes.
func (m *Mux) Schemes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.readers))
	for s := range m.readers {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Read dispatches to the reader registered for the descriptor's scheme.
func (m *Mux) Read(ctx context.Context, src Descriptor) ([]Record, error) {
	scheme := src.Scheme()
	r, ok := m.Get(scheme)
	if !ok && scheme == "file" {
		r, ok = m.Get("")
	}
	if !ok {
		return nil, fmt.Errorf("no reader registered for scheme %q (source %s)", scheme, src.ID)
	}
	return r.Read(ctx, src)
}
