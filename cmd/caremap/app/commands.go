package app

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/caremap"
	"github.com/agentstation/caremap/internal/cmd/output"
	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/transform"
)

// NewRunCommand creates the run command.
func (a *App) NewRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile the configured sources and write the batch",
		Long: `Run reads every source in the manifest, maps and normalizes its records,
merges them, removes duplicate providers, and writes the result to the
manifest's sink in a single all-or-nothing write.

A source with no column map entry is skipped. Values that cannot be parsed
are written as null and listed in the run report.`,
		Example: `  caremap run -m examples/reconcile/caremap.yaml
  caremap run -m caremap.yaml --dry-run -o table
  caremap run -m caremap.yaml --sink-path out/providers.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, m, err := a.runPipeline(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.writeReport(a.reportWriter(m, opts.dryRun), result)
		},
	}

	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "pipeline manifest (default $CAREMAP_MANIFEST)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "run every stage but skip the sink")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent source and record workers (default from manifest or CPU count)")
	cmd.Flags().IntVar(&opts.partitions, "partitions", 0, "dedup partitions (default from manifest or CPU count)")
	cmd.Flags().StringVar(&opts.sinkPath, "sink-path", "", "write the batch to this JSON or YAML file instead of the manifest sink")

	return cmd
}

// runReport is the machine readable form of a run result.
type runReport struct {
	RunID       string                  `json:"run_id" yaml:"run_id"`
	LoadTime    time.Time               `json:"load_time" yaml:"load_time"`
	DryRun      bool                    `json:"dry_run" yaml:"dry_run"`
	Duration    string                  `json:"duration" yaml:"duration"`
	Stats       caremap.Stats           `json:"stats" yaml:"stats"`
	Sources     []caremap.SourceSummary `json:"sources" yaml:"sources"`
	Skipped     map[string]string       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Diagnostics []caremap.Diagnostic    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newRunReport(result *caremap.Result) runReport {
	r := runReport{
		RunID:       result.RunID,
		LoadTime:    result.LoadTime,
		DryRun:      result.DryRun,
		Duration:    result.Duration.Round(time.Millisecond).String(),
		Stats:       result.Stats,
		Sources:     result.Sources,
		Diagnostics: result.Diagnostics,
	}
	if len(result.Skipped) > 0 {
		r.Skipped = make(map[string]string, len(result.Skipped))
		for _, s := range result.Skipped {
			r.Skipped[s.Source.String()] = s.Reason.Error()
		}
	}
	return r
}

// writeReport prints a run result in the configured format.
func (a *App) writeReport(w io.Writer, result *caremap.Result) error {
	format := output.DetectFormat(a.config.Format)
	formatter := output.NewFormatter(format)

	switch format {
	case output.FormatJSON, output.FormatYAML:
		return formatter.Format(w, newRunReport(result))
	}

	if err := formatter.Format(w, output.SourcesTable(result)); err != nil {
		return err
	}
	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(w)
		if err := formatter.Format(w, output.DiagnosticsTable(result)); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, result.Summary())
	return nil
}

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check a manifest, its column map and its hooks",
		Long: `Validate loads the manifest and its column map and resolves every hook
without reading any source. It lists each source with its mapping status
and the hooks that will run for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadManifest(path)
			if err != nil {
				return err
			}
			table, err := m.Table(schema.Canonical())
			if err != nil {
				return err
			}
			tr, err := transform.NewTransformer(nil, m.Plan())
			if err != nil {
				return err
			}

			data := output.Data{Headers: []string{"Source", "Path", "Mapping", "Hooks"}}
			for _, d := range m.Descriptors() {
				status := "ok"
				if !table.Has(d.ID) {
					status = "missing (skipped)"
				}
				data.Rows = append(data.Rows, []string{
					d.ID.String(),
					d.Path,
					status,
					strings.Join(tr.Chain(d.ID).Names(), ", "),
				})
			}

			out := cmd.OutOrStdout()
			if err := output.NewFormatter(output.DetectFormat(a.config.Format)).Format(out, data); err != nil {
				return err
			}
			fmt.Fprintf(out, "manifest ok: %d sources, %d mapped, date pattern %q\n",
				len(m.Sources), countMapped(data.Rows), tr.DatePattern())
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "manifest", "m", "", "pipeline manifest (default $CAREMAP_MANIFEST)")
	return cmd
}

func countMapped(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if row[2] == "ok" {
			n++
		}
	}
	return n
}

// NewSchemaCommand creates the schema command.
func (a *App) NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		GroupID: "management",
		Short:   "Print the canonical provider schema",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output.DetectFormat(a.config.Format)
			formatter := output.NewFormatter(format)

			switch format {
			case output.FormatJSON, output.FormatYAML:
				return formatter.Format(cmd.OutOrStdout(), schema.Canonical().Fields())
			default:
				return formatter.Format(cmd.OutOrStdout(), output.SchemaTable(schema.Canonical()))
			}
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "caremap version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
