package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/schemashift/internal/runner"
	"github.com/tordrt/schemashift/internal/schema"
)

// TextFormatter formats schemas and migration state as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i, name := range s.TableNames() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(s.Tables[name])
	}
	return nil
}

func (f *TextFormatter) formatTable(table *schema.Table) {
	pkStr := ""
	if pk := table.PrimaryKey(); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, field := range table.Fields {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatField(field))
	}

	if len(table.Constraints) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  CONSTRAINTS:")
		for _, c := range table.Constraints {
			_, _ = fmt.Fprintf(f.writer, "    %s %s\n", c.Name, describeConstraint(c))
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Fields, ", "), indexSuffix(idx))
		}
	}
}

func formatField(field schema.Field) string {
	parts := []string{field.Name + ":", field.TypeString()}

	if field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if !field.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if field.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *field.DefaultValue))
	}

	return strings.Join(parts, " ")
}

// describeConstraint renders a constraint without its name
func describeConstraint(c schema.Constraint) string {
	var s string
	switch c.Type {
	case schema.ForeignKey:
		s = fmt.Sprintf("(%s) → %s(%s)", strings.Join(c.Fields, ", "), c.ReferenceTable, strings.Join(c.ReferenceFields, ", "))
		if c.OnDelete != "" {
			s += " ON DELETE " + strings.ToUpper(c.OnDelete)
		}
		if c.OnUpdate != "" {
			s += " ON UPDATE " + strings.ToUpper(c.OnUpdate)
		}
	case schema.Check:
		s = fmt.Sprintf("CHECK (%s)", c.Expression)
	default:
		s = fmt.Sprintf("%s (%s)", strings.ToUpper(strings.ReplaceAll(c.Type, "_", " ")), strings.Join(c.Fields, ", "))
	}
	if c.Deferrable {
		s += " DEFERRABLE"
	}
	return s
}

func indexSuffix(idx schema.Index) string {
	var s string
	if idx.Type != "" {
		s += " USING " + idx.Type
	}
	if idx.Unique {
		s += " UNIQUE"
	}
	return s
}

// FormatStatus writes one line per migration: a mark, the name and the
// time it was applied
func (f *TextFormatter) FormatStatus(statuses []runner.Status) error {
	if len(statuses) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No migrations.")
		return nil
	}
	width := 0
	for _, st := range statuses {
		width = max(width, len(st.Name))
	}
	pending := 0
	for _, st := range statuses {
		if st.Applied {
			_, _ = fmt.Fprintf(f.writer, "[X] %-*s  %s\n", width, st.Name, st.AppliedAt.Local().Format(time.DateTime))
			continue
		}
		pending++
		_, _ = fmt.Fprintf(f.writer, "[ ] %s\n", st.Name)
	}
	_, _ = fmt.Fprintf(f.writer, "\n%d applied, %d pending\n", len(statuses)-pending, pending)
	return nil
}
