// Package postgres writes the final batch into a Postgres table in a single
// transaction using COPY.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/caremap/pkg/constants"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/sink"
)

// Beginner starts a transaction. *pgxpool.Pool and *pgx.Conn satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Sink copies records into one table. In overwrite mode the table is
// truncated inside the same transaction, so readers see either the old
// rows or the new batch.
type Sink struct {
	db          Beginner
	table       pgx.Identifier
	mode        sink.Mode
	schema      *schema.Schema
	createTable bool
}

// Option configures a Sink.
type Option func(*Sink) error

// WithTable sets the target table, optionally schema-qualified.
func WithTable(name string) Option {
	return func(s *Sink) error {
		if strings.TrimSpace(name) == "" {
			return pkgerrors.NewValidationError("table", name, "cannot be empty")
		}
		s.table = pgx.Identifier(strings.Split(name, "."))
		return nil
	}
}

// WithMode sets overwrite or append.
func WithMode(mode sink.Mode) Option {
	return func(s *Sink) error {
		m, ok := sink.ParseMode(string(mode))
		if !ok {
			return pkgerrors.NewValidationError("mode", string(mode), "must be overwrite or append")
		}
		s.mode = m
		return nil
	}
}

// WithSchema sets the record schema, which fixes the column list.
func WithSchema(sc *schema.Schema) Option {
	return func(s *Sink) error {
		s.schema = sc
		return nil
	}
}

// WithCreateTable creates the table when it does not exist.
func WithCreateTable(enabled bool) Option {
	return func(s *Sink) error {
		s.createTable = enabled
		return nil
	}
}

// New creates a Postgres sink. The defaults are the child_care_info table,
// overwrite mode and the canonical schema.
func New(db Beginner, opts ...Option) (*Sink, error) {
	s := &Sink{
		db:     db,
		table:  pgx.Identifier{constants.DefaultTable},
		mode:   sink.ModeOverwrite,
		schema: schema.Canonical(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Connect opens a connection pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, pkgerrors.NewValidationError("dsn", nil, "postgres sink needs a connection string")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return pool, nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return "postgres" }

// Table returns the sanitized target table name.
func (s *Sink) Table() string { return s.table.Sanitize() }

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, records []*schema.Record) error {
	if err := s.write(ctx, records); err != nil {
		return pkgerrors.WrapSink(s.Name(), strings.Join(s.table, "."), len(records), err)
	}
	return nil
}

func (s *Sink) write(ctx context.Context, records []*schema.Record) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if s.createTable {
		if _, err = tx.Exec(ctx, s.createStatement()); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	if s.mode == sink.ModeOverwrite {
		if _, err = tx.Exec(ctx, "TRUNCATE TABLE "+s.table.Sanitize()); err != nil {
			return fmt.Errorf("truncating table: %w", err)
		}
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = s.schema.Project(r).Native()
	}

	n, err := tx.CopyFrom(ctx, s.table, s.schema.Names(), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copying rows: %w", err)
	}
	if n != int64(len(rows)) {
		err = fmt.Errorf("copied %d of %d rows", n, len(rows))
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// createStatement returns the DDL for the target table.
func (s *Sink) createStatement() string {
	fields := s.schema.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = pgx.Identifier{f.Name}.Sanitize() + " " + columnType(f.Kind)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", s.table.Sanitize(), strings.Join(cols, ",\n\t"))
}

func columnType(k schema.Kind) string {
	switch k {
	case schema.KindInteger:
		return "integer"
	case schema.KindBoolean:
		return "boolean"
	case schema.KindDate:
		return "date"
	case schema.KindTimestamp:
		return "timestamp with time zone"
	default:
		return "text"
	}
}
