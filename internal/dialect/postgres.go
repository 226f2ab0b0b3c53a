package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/tordrt/schemashift/internal/schema"
)

// Postgres renders PostgreSQL DDL
type Postgres struct{}

var pgRender = renderer{quote: Postgres{}.QuoteIdent}

func (Postgres) Name() string { return "postgres" }

// QuoteIdent leaves plain lowercase identifiers bare and double-quotes the rest
func (Postgres) QuoteIdent(name string) string {
	if !needsQuoting(name) {
		return name
	}
	return pq.QuoteIdentifier(name)
}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) TransactionalDDL() bool { return true }

func (Postgres) CreateTable(name string, fields []schema.Field) ([]string, error) {
	return []string{pgRender.createTable(name, fields)}, nil
}

func (p Postgres) DropTable(name string) ([]string, error) {
	return []string{"DROP TABLE " + p.QuoteIdent(name)}, nil
}

func (p Postgres) AddField(table string, f schema.Field) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", p.QuoteIdent(table), pgRender.columnDef(f, true))}, nil
}

func (p Postgres) DropField(table, name string) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.QuoteIdent(table), p.QuoteIdent(name))}, nil
}

// AlterField emits one statement per differing attribute. Column-level
// unique constraints follow the server's default <table>_<column>_key naming.
// The primary key flag cannot change: the key may span other columns this
// field knows nothing about.
func (p Postgres) AlterField(table string, from, to schema.Field) ([]string, error) {
	if from.PrimaryKey != to.PrimaryKey {
		return nil, unsupported(p, "changing the primary key membership of column "+from.Name)
	}
	t := p.QuoteIdent(table)
	col := p.QuoteIdent(to.Name)
	var stmts []string

	if from.Name != to.Name {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", t, p.QuoteIdent(from.Name), col))
	}
	if from.TypeString() != to.TypeString() {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", t, col, to.TypeString()))
	}
	if from.Nullable != to.Nullable {
		action := "SET NOT NULL"
		if to.Nullable {
			action = "DROP NOT NULL"
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", t, col, action))
	}
	if !defaultsEqual(from.DefaultValue, to.DefaultValue) {
		action := "DROP DEFAULT"
		if to.DefaultValue != nil {
			action = "SET DEFAULT " + *to.DefaultValue
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", t, col, action))
	}
	if from.Unique != to.Unique {
		if to.Unique {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
				t, p.QuoteIdent(table+"_"+to.Name+"_key"), col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
				t, p.QuoteIdent(table+"_"+from.Name+"_key")))
		}
	}
	return stmts, nil
}

func (p Postgres) CreateConstraint(table string, c schema.Constraint) ([]string, error) {
	body, ok := pgRender.constraintBody(c)
	if !ok {
		return nil, unsupported(p, "constraint type "+c.Type)
	}
	if c.Deferrable && (c.Type == schema.ForeignKey || c.Type == schema.Unique) {
		body += " DEFERRABLE INITIALLY DEFERRED"
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", p.QuoteIdent(table), p.QuoteIdent(c.Name), body)}, nil
}

func (p Postgres) DropConstraint(table string, c schema.Constraint) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", p.QuoteIdent(table), p.QuoteIdent(c.Name))}, nil
}

func (p Postgres) CreateIndex(table string, idx schema.Index) ([]string, error) {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s", p.QuoteIdent(idx.Name), p.QuoteIdent(table))
	if idx.Type != "" {
		b.WriteString(" USING " + strings.ToLower(idx.Type))
	}
	fmt.Fprintf(&b, " (%s)", pgRender.idents(idx.Fields))
	if len(idx.Options) > 0 {
		fmt.Fprintf(&b, " WITH (%s)", strings.Join(sortedOptions(idx.Options), ", "))
	}
	return []string{b.String()}, nil
}

func (p Postgres) DropIndex(_ string, idx schema.Index) ([]string, error) {
	return []string{"DROP INDEX " + p.QuoteIdent(idx.Name)}, nil
}
