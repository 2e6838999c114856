package output

import (
	"strconv"

	"github.com/agentstation/caremap"
	"github.com/agentstation/caremap/pkg/schema"
)

// SourcesTable lists what each source contributed to a run.
func SourcesTable(result *caremap.Result) Data {
	data := Data{
		Headers:         []string{"Source", "Path", "Read", "Merged", "Kept", "Padded", "Dropped"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	for _, s := range result.Sources {
		data.Rows = append(data.Rows, []string{
			s.Source.String(),
			s.Path,
			strconv.Itoa(s.Read),
			strconv.Itoa(s.Merged),
			strconv.Itoa(s.Kept),
			strconv.Itoa(s.Padded),
			strconv.Itoa(s.Dropped),
		})
	}
	for _, s := range result.Skipped {
		data.Rows = append(data.Rows, []string{s.Source.String(), s.Path, "skipped", "-", "-", "-", "-"})
	}
	return data
}

// DiagnosticsTable lists the values nulled during a run.
func DiagnosticsTable(result *caremap.Result) Data {
	data := Data{Headers: []string{"Source", "Line", "Field", "Value", "Message"}}
	for _, d := range result.Diagnostics {
		data.Rows = append(data.Rows, []string{
			d.Source.String(),
			strconv.Itoa(d.Line),
			d.Field,
			d.Value,
			d.Message,
		})
	}
	return data
}

// SchemaTable describes the fields of a schema in order.
func SchemaTable(s *schema.Schema) Data {
	data := Data{
		Headers:         []string{"#", "Field", "Type"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft},
	}
	for i, f := range s.Fields() {
		data.Rows = append(data.Rows, []string{strconv.Itoa(i + 1), f.Name, f.Kind.String()})
	}
	return data
}
