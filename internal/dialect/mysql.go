package dialect

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

// MySQL renders MySQL / MariaDB DDL. DDL statements commit implicitly, so
// TransactionalDDL is false.
type MySQL struct{}

var myRender = renderer{quote: MySQL{}.QuoteIdent}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(name string) string {
	if !needsQuoting(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) TransactionalDDL() bool { return false }

func (MySQL) CreateTable(name string, fields []schema.Field) ([]string, error) {
	return []string{myRender.createTable(name, fields)}, nil
}

func (m MySQL) DropTable(name string) ([]string, error) {
	return []string{"DROP TABLE " + m.QuoteIdent(name)}, nil
}

func (m MySQL) AddField(table string, f schema.Field) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", m.QuoteIdent(table), myRender.columnDef(f, true))}, nil
}

func (m MySQL) DropField(table, name string) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", m.QuoteIdent(table), m.QuoteIdent(name))}, nil
}

// AlterField rewrites the column definition with CHANGE COLUMN and then
// adjusts keys. A column-level unique index is named after its column,
// matching what MySQL assigns to an inline UNIQUE. Like Postgres it refuses
// to move a column in or out of the primary key.
func (m MySQL) AlterField(table string, from, to schema.Field) ([]string, error) {
	if from.PrimaryKey != to.PrimaryKey {
		return nil, unsupported(m, "changing the primary key membership of column "+from.Name)
	}
	t := m.QuoteIdent(table)
	var stmts []string

	if from.Name != to.Name || from.TypeString() != to.TypeString() ||
		from.Nullable != to.Nullable || !defaultsEqual(from.DefaultValue, to.DefaultValue) {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s",
			t, m.QuoteIdent(from.Name), myRender.columnDef(to, false)))
	}
	if from.Unique != to.Unique {
		if to.Unique {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD UNIQUE INDEX %s (%s)",
				t, m.QuoteIdent(to.Name), m.QuoteIdent(to.Name)))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", t, m.QuoteIdent(from.Name)))
		}
	}
	return stmts, nil
}

func (m MySQL) CreateConstraint(table string, c schema.Constraint) ([]string, error) {
	if c.Deferrable {
		return nil, unsupported(m, "deferrable constraints")
	}
	t := m.QuoteIdent(table)
	if c.Type == schema.PrimaryKey {
		return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", t, myRender.idents(c.Fields))}, nil
	}
	body, ok := myRender.constraintBody(c)
	if !ok {
		return nil, unsupported(m, "constraint type "+c.Type)
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", t, m.QuoteIdent(c.Name), body)}, nil
}

func (m MySQL) DropConstraint(table string, c schema.Constraint) ([]string, error) {
	t := m.QuoteIdent(table)
	var clause string
	switch c.Type {
	case schema.ForeignKey:
		clause = "DROP FOREIGN KEY " + m.QuoteIdent(c.Name)
	case schema.Unique:
		clause = "DROP INDEX " + m.QuoteIdent(c.Name)
	case schema.Check:
		clause = "DROP CHECK " + m.QuoteIdent(c.Name)
	case schema.PrimaryKey:
		clause = "DROP PRIMARY KEY"
	default:
		return nil, unsupported(m, "constraint type "+c.Type)
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", t, clause)}, nil
}

func (m MySQL) CreateIndex(table string, idx schema.Index) ([]string, error) {
	if len(idx.Options) > 0 {
		return nil, unsupported(m, "index storage options")
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", m.QuoteIdent(idx.Name), m.QuoteIdent(table), myRender.idents(idx.Fields))
	if idx.Type != "" {
		b.WriteString(" USING " + strings.ToUpper(idx.Type))
	}
	return []string{b.String()}, nil
}

func (m MySQL) DropIndex(table string, idx schema.Index) ([]string, error) {
	return []string{fmt.Sprintf("DROP INDEX %s ON %s", m.QuoteIdent(idx.Name), m.QuoteIdent(table))}, nil
}
