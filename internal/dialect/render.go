package dialect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

var simpleIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Words that must be quoted even though they look like plain identifiers.
var reserved = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "by": true, "check": true,
	"column": true, "constraint": true, "create": true, "default": true,
	"desc": true, "distinct": true, "drop": true, "foreign": true, "from": true,
	"group": true, "having": true, "in": true, "index": true, "key": true,
	"limit": true, "not": true, "null": true, "on": true, "or": true,
	"order": true, "primary": true, "references": true, "select": true,
	"table": true, "to": true, "unique": true, "user": true, "where": true,
}

// needsQuoting reports whether name must be quoted to survive as written
func needsQuoting(name string) bool {
	return !simpleIdent.MatchString(name) || reserved[name]
}

// renderer holds the quoting rule shared by the statement builders
type renderer struct {
	quote func(string) string
}

func (r renderer) idents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = r.quote(n)
	}
	return strings.Join(quoted, ", ")
}

// columnDef renders "name type [NOT NULL] [DEFAULT x]" and, when keys is
// set, the inline UNIQUE / PRIMARY KEY markers
func (r renderer) columnDef(f schema.Field, keys bool) string {
	parts := []string{r.quote(f.Name), f.TypeString()}
	if !f.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if f.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+*f.DefaultValue)
	}
	if keys && f.Unique {
		parts = append(parts, "UNIQUE")
	}
	if keys && f.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	return strings.Join(parts, " ")
}

// createTable renders a single CREATE TABLE. A lone primary key field is
// marked inline; a composite key becomes a table-level clause.
func (r renderer) createTable(name string, fields []schema.Field) string {
	var pk []string
	for _, f := range fields {
		if f.PrimaryKey {
			pk = append(pk, f.Name)
		}
	}
	composite := len(pk) > 1

	defs := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if composite {
			g := f
			g.PrimaryKey = false
			defs = append(defs, r.columnDef(g, true))
			continue
		}
		defs = append(defs, r.columnDef(f, true))
	}
	if composite {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", r.idents(pk)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", r.quote(name), strings.Join(defs, ", "))
}

// references renders the REFERENCES tail of a foreign key
func (r renderer) references(c schema.Constraint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "REFERENCES %s (%s)", r.quote(c.ReferenceTable), r.idents(c.ReferenceFields))
	if c.MatchType != "" {
		b.WriteString(" MATCH " + strings.ToUpper(c.MatchType))
	}
	if c.OnDelete != "" {
		b.WriteString(" ON DELETE " + strings.ToUpper(c.OnDelete))
	}
	if c.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + strings.ToUpper(c.OnUpdate))
	}
	return b.String()
}

// constraintBody renders the part after "ADD CONSTRAINT name"
func (r renderer) constraintBody(c schema.Constraint) (string, bool) {
	switch c.Type {
	case schema.ForeignKey:
		return fmt.Sprintf("FOREIGN KEY (%s) %s", r.idents(c.Fields), r.references(c)), true
	case schema.Unique:
		return fmt.Sprintf("UNIQUE (%s)", r.idents(c.Fields)), true
	case schema.Check:
		return fmt.Sprintf("CHECK (%s)", c.Expression), true
	case schema.PrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", r.idents(c.Fields)), true
	}
	return "", false
}

func sortedOptions(opts map[string]string) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s = %s", k, opts[k])
	}
	return out
}

func defaultsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
