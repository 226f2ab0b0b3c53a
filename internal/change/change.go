// Package change defines the atomic schema mutations a migration is built
// from. Each Change renders itself as SQL for a dialect, replays itself onto
// an in-memory schema, and round-trips through YAML.
package change

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/schema"
)

var (
	// ErrUnknownKind is returned when decoding a step with an unregistered op
	ErrUnknownKind = errors.New("unknown change kind")
	// ErrInvalid is returned for a change missing a required attribute
	ErrInvalid = errors.New("invalid change")
)

// Kind is the serialized tag of a Change variant
type Kind string

const (
	KindCreateTable      Kind = "create_table"
	KindDropTable        Kind = "drop_table"
	KindAddField         Kind = "add_field"
	KindDropField        Kind = "drop_field"
	KindAlterField       Kind = "alter_field"
	KindCreateConstraint Kind = "create_constraint"
	KindDropConstraint   Kind = "drop_constraint"
	KindCreateIndex      Kind = "create_index"
	KindDropIndex        Kind = "drop_index"
)

// Change is a single schema mutation
type Change interface {
	Kind() Kind
	// SQL renders the change as ordered statements for d
	SQL(d dialect.Dialect) ([]string, error)
	// Apply mutates s in place the way SQL would mutate a database
	Apply(s *schema.Schema) error
	String() string
}

// SQL renders a list of changes in order, stopping at the first failure
func SQL(d dialect.Dialect, changes []Change) ([]string, error) {
	var stmts []string
	for i, c := range changes {
		s, err := c.SQL(d)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, c, err)
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// Apply replays a list of changes onto s in order
func Apply(s *schema.Schema, changes []Change) error {
	for i, c := range changes {
		if err := c.Apply(s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, c, err)
		}
	}
	return nil
}

// checkNames fails on the first empty attribute, given as name/value pairs
func checkNames(kind Kind, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s without %s", ErrInvalid, kind, pairs[i])
		}
	}
	return nil
}
