package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/caremap/pkg/constants"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
)

// filePermissions is the mode of written batch files.
const filePermissions = constants.FilePermissions

// Encoding is a file sink output encoding.
type Encoding string

// File encodings.
const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// File writes the batch to one JSON or YAML file. The file is written to a
// temporary name in the same directory and renamed into place, so readers
// never see a partial batch.
type File struct {
	path     string
	encoding Encoding
	schema   *schema.Schema
}

// NewFile creates a file sink. An empty encoding is inferred from the
// extension, defaulting to JSON.
func NewFile(path string, encoding Encoding, s *schema.Schema) (*File, error) {
	if path == "" {
		return nil, pkgerrors.NewValidationError("path", path, "file sink needs a path")
	}
	if encoding == "" {
		encoding = EncodingJSON
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			encoding = EncodingYAML
		}
	}
	if encoding != EncodingJSON && encoding != EncodingYAML {
		return nil, pkgerrors.NewValidationError("format", string(encoding), "file sink supports json and yaml")
	}
	if s == nil {
		s = schema.Canonical()
	}
	return &File{path: path, encoding: encoding, schema: s}, nil
}

// Name implements Sink.
func (f *File) Name() string { return "file" }

// Path returns the target path.
func (f *File) Path() string { return f.path }

// Write implements Sink.
func (f *File) Write(ctx context.Context, records []*schema.Record) error {
	if err := f.write(ctx, records); err != nil {
		return pkgerrors.WrapSink(f.Name(), f.path, len(records), err)
	}
	return nil
}

func (f *File) write(ctx context.Context, records []*schema.Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := f.encode(NewBatch(f.schema, records))
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return pkgerrors.WrapIO("write", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return pkgerrors.WrapIO("write", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return pkgerrors.WrapIO("close", tmpName, err)
	}
	if err = os.Chmod(tmpName, filePermissions); err != nil {
		return pkgerrors.WrapIO("write", tmpName, err)
	}

	// Last chance to abandon the batch before it becomes visible.
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return pkgerrors.WrapIO("rename", f.path, err)
	}
	return nil
}

func (f *File) encode(b Batch) ([]byte, error) {
	if f.encoding == EncodingYAML {
		return yaml.MarshalWithOptions(b, yaml.Indent(2), yaml.IndentSequence(false))
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
