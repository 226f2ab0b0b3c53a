package change

import (
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/schema"
)

// CreateConstraint adds a table constraint
type CreateConstraint struct {
	Table      string            `yaml:"table"`
	Constraint schema.Constraint `yaml:",inline"`
}

func (CreateConstraint) Kind() Kind { return KindCreateConstraint }

func (c CreateConstraint) String() string {
	return fmt.Sprintf("create %s constraint %s on %s", c.Constraint.Type, c.Constraint.Name, c.Table)
}

func (c CreateConstraint) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "name", c.Constraint.Name, "type", c.Constraint.Type); err != nil {
		return nil, err
	}
	return d.CreateConstraint(c.Table, c.Constraint)
}

func (c CreateConstraint) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.AddConstraint(c.Constraint)
}

// DropConstraint removes a table constraint. It carries the full
// definition since some dialects drop constraints by type.
type DropConstraint struct {
	Table      string            `yaml:"table"`
	Constraint schema.Constraint `yaml:",inline"`
}

func (DropConstraint) Kind() Kind { return KindDropConstraint }

func (c DropConstraint) String() string {
	return fmt.Sprintf("drop %s constraint %s on %s", c.Constraint.Type, c.Constraint.Name, c.Table)
}

func (c DropConstraint) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "name", c.Constraint.Name); err != nil {
		return nil, err
	}
	return d.DropConstraint(c.Table, c.Constraint)
}

func (c DropConstraint) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.RemoveConstraint(c.Constraint.Name)
}
