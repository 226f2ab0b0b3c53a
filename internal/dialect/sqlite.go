package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/tordrt/schemashift/internal/schema"
)

// SQLite renders SQLite DDL. SQLite's ALTER TABLE is limited to adding,
// dropping and renaming columns; anything else returns ErrUnsupported.
type SQLite struct{}

var liteRender = renderer{quote: SQLite{}.QuoteIdent}

func (SQLite) Name() string { return "sqlite" }

// QuoteIdent uses the same double-quote rules as PostgreSQL
func (SQLite) QuoteIdent(name string) string {
	if !needsQuoting(name) {
		return name
	}
	return pq.QuoteIdentifier(name)
}

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) TransactionalDDL() bool { return true }

func (SQLite) CreateTable(name string, fields []schema.Field) ([]string, error) {
	return []string{liteRender.createTable(name, fields)}, nil
}

func (s SQLite) DropTable(name string) ([]string, error) {
	return []string{"DROP TABLE " + s.QuoteIdent(name)}, nil
}

// AddField cannot add a key column in place; a unique column gets a
// companion unique index named <table>_<column>_key.
func (s SQLite) AddField(table string, f schema.Field) ([]string, error) {
	if f.PrimaryKey {
		return nil, unsupported(s, "adding a primary key column")
	}
	stmts := []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", s.QuoteIdent(table), liteRender.columnDef(f, false))}
	if f.Unique {
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
			s.QuoteIdent(table+"_"+f.Name+"_key"), s.QuoteIdent(table), s.QuoteIdent(f.Name)))
	}
	return stmts, nil
}

// DropField drops the companion index AddField may have created first;
// SQLite refuses to drop an indexed column.
func (s SQLite) DropField(table, name string) ([]string, error) {
	return []string{
		"DROP INDEX IF EXISTS " + s.QuoteIdent(table+"_"+name+"_key"),
		fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", s.QuoteIdent(table), s.QuoteIdent(name)),
	}, nil
}

func (s SQLite) AlterField(table string, from, to schema.Field) ([]string, error) {
	renamed := from
	renamed.Name = to.Name
	if !renamed.Equal(to) {
		return nil, unsupported(s, "altering column attributes other than the name")
	}
	return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		s.QuoteIdent(table), s.QuoteIdent(from.Name), s.QuoteIdent(to.Name))}, nil
}

// CreateConstraint only supports unique constraints, expressed as unique
// indexes. Foreign keys and checks can only be declared by CREATE TABLE,
// which never carries them here, so models using them are rejected when a
// migration is generated against SQLite.
func (s SQLite) CreateConstraint(table string, c schema.Constraint) ([]string, error) {
	if c.Type != schema.Unique || c.Deferrable {
		return nil, unsupported(s, "adding "+c.Type+" constraints to an existing table")
	}
	return []string{fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		s.QuoteIdent(c.Name), s.QuoteIdent(table), liteRender.idents(c.Fields))}, nil
}

func (s SQLite) DropConstraint(_ string, c schema.Constraint) ([]string, error) {
	if c.Type != schema.Unique {
		return nil, unsupported(s, "dropping "+c.Type+" constraints")
	}
	return []string{"DROP INDEX " + s.QuoteIdent(c.Name)}, nil
}

func (s SQLite) CreateIndex(table string, idx schema.Index) ([]string, error) {
	if len(idx.Options) > 0 {
		return nil, unsupported(s, "index storage options")
	}
	if idx.Type != "" && !strings.EqualFold(idx.Type, "btree") {
		return nil, unsupported(s, "index method "+idx.Type)
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return []string{fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, s.QuoteIdent(idx.Name), s.QuoteIdent(table), liteRender.idents(idx.Fields))}, nil
}

func (s SQLite) DropIndex(_ string, idx schema.Index) ([]string, error) {
	return []string{"DROP INDEX " + s.QuoteIdent(idx.Name)}, nil
}
