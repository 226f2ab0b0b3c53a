package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, name := range s.TableNames() {
		f.formatTable(s.Tables[name], s)
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table *schema.Table, s *schema.Schema) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, field := range table.Fields {
		if attrs := fieldAttributes(field); attrs != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", field.Name, field.TypeString(), attrs)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", field.Name, field.TypeString())
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.Constraints) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Constraints")
		_, _ = fmt.Fprintln(f.writer)
		for _, c := range table.Constraints {
			_, _ = fmt.Fprintf(f.writer, "- %s: %s\n", c.Name, describeConstraint(c))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Idx")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s)%s\n", idx.Name, strings.Join(idx.Fields, ", "), strings.ToLower(indexSuffix(idx)))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if refs := referencedBy(table.Name, s); len(refs) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, ref := range refs {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", ref)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func fieldAttributes(field schema.Field) string {
	var attrs []string
	if field.PrimaryKey {
		attrs = append(attrs, "PK")
	}
	if field.Unique {
		attrs = append(attrs, "UNIQUE")
	}
	if !field.Nullable {
		attrs = append(attrs, "NOT NULL")
	}
	if field.DefaultValue != nil {
		attrs = append(attrs, fmt.Sprintf("DEFAULT %s", *field.DefaultValue))
	}
	return strings.Join(attrs, ", ")
}

// referencedBy lists the foreign keys in s that point at table, as
// "source.fields → fields"
func referencedBy(table string, s *schema.Schema) []string {
	var refs []string
	for _, name := range s.TableNames() {
		for _, c := range s.Tables[name].Constraints {
			if c.Type != schema.ForeignKey || c.ReferenceTable != table {
				continue
			}
			refs = append(refs, fmt.Sprintf("%s.%s → %s",
				name, strings.Join(c.Fields, ","), strings.Join(c.ReferenceFields, ",")))
		}
	}
	return refs
}
