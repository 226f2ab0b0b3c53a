package change

import (
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/schema"
)

// CreateIndex adds an index to a table
type CreateIndex struct {
	Table string       `yaml:"table"`
	Index schema.Index `yaml:",inline"`
}

func (CreateIndex) Kind() Kind { return KindCreateIndex }

func (c CreateIndex) String() string { return fmt.Sprintf("create index %s on %s", c.Index.Name, c.Table) }

func (c CreateIndex) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "name", c.Index.Name); err != nil {
		return nil, err
	}
	if len(c.Index.Fields) == 0 {
		return nil, fmt.Errorf("%w: index %s has no fields", ErrInvalid, c.Index.Name)
	}
	return d.CreateIndex(c.Table, c.Index)
}

func (c CreateIndex) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.AddIndex(c.Index)
}

// DropIndex removes an index
type DropIndex struct {
	Table string       `yaml:"table"`
	Index schema.Index `yaml:",inline"`
}

func (DropIndex) Kind() Kind { return KindDropIndex }

func (c DropIndex) String() string { return fmt.Sprintf("drop index %s on %s", c.Index.Name, c.Table) }

func (c DropIndex) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "name", c.Index.Name); err != nil {
		return nil, err
	}
	return d.DropIndex(c.Table, c.Index)
}

func (c DropIndex) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.RemoveIndex(c.Index.Name)
}
