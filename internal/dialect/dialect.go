// Package dialect renders schema changes as SQL for a specific database back end.
//
// Every Change delegates its SQL rendering to a Dialect, so adding a new
// database means adding a Dialect implementation and registering it; the
// change model itself is untouched.
package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

var (
	// ErrUnknownDialect is returned by Get for an unregistered name
	ErrUnknownDialect = errors.New("unknown dialect")
	// ErrUnsupported is returned when a dialect cannot express a change
	ErrUnsupported = errors.New("not supported by dialect")
)

// Dialect renders each kind of schema change into ordered SQL statements.
// Implementations must be pure: output depends only on the arguments.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	// Placeholder returns the bind parameter marker for the n-th (1-based) argument
	Placeholder(n int) string
	// TransactionalDDL reports whether DDL can be rolled back inside a transaction
	TransactionalDDL() bool

	CreateTable(name string, fields []schema.Field) ([]string, error)
	DropTable(name string) ([]string, error)
	AddField(table string, f schema.Field) ([]string, error)
	DropField(table, name string) ([]string, error)
	AlterField(table string, from, to schema.Field) ([]string, error)
	CreateConstraint(table string, c schema.Constraint) ([]string, error)
	DropConstraint(table string, c schema.Constraint) ([]string, error)
	CreateIndex(table string, idx schema.Index) ([]string, error)
	DropIndex(table string, idx schema.Index) ([]string, error)
}

var (
	registry = make(map[string]Dialect)
	aliases  = make(map[string]string)
)

func init() {
	Register(Postgres{}, "postgresql", "pgx")
	Register(MySQL{})
	Register(SQLite{}, "sqlite3")
}

// Register makes a dialect available under its name and any aliases
func Register(d Dialect, alias ...string) {
	registry[d.Name()] = d
	for _, a := range alias {
		aliases[a] = d.Name()
	}
}

// Get looks up a dialect by name or alias, case-insensitively
func Get(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	d, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDialect, name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists registered dialect names
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unsupported(d Dialect, what string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnsupported, d.Name(), what)
}
