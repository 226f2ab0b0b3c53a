package change

import (
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/schema"
)

// AddField appends a field to an existing table
type AddField struct {
	Table string       `yaml:"table"`
	Field schema.Field `yaml:"field"`
}

func (AddField) Kind() Kind { return KindAddField }

func (c AddField) String() string { return fmt.Sprintf("add field %s.%s", c.Table, c.Field.Name) }

func (c AddField) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "field name", c.Field.Name); err != nil {
		return nil, err
	}
	return d.AddField(c.Table, c.Field)
}

func (c AddField) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.AddField(c.Field)
}

// DropField removes a field by name
type DropField struct {
	Table string `yaml:"table"`
	Name  string `yaml:"name"`
}

func (DropField) Kind() Kind { return KindDropField }

func (c DropField) String() string { return fmt.Sprintf("drop field %s.%s", c.Table, c.Name) }

func (c DropField) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "name", c.Name); err != nil {
		return nil, err
	}
	return d.DropField(c.Table, c.Name)
}

func (c DropField) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.RemoveField(c.Name)
}

// AlterField replaces the definition of the field named From.Name with To. A
// rename is an alteration of the name attribute.
type AlterField struct {
	Table string       `yaml:"table"`
	From  schema.Field `yaml:"from"`
	To    schema.Field `yaml:"to"`
}

func (AlterField) Kind() Kind { return KindAlterField }

func (c AlterField) String() string {
	if c.From.Name != c.To.Name {
		return fmt.Sprintf("alter field %s.%s (renamed to %s)", c.Table, c.From.Name, c.To.Name)
	}
	return fmt.Sprintf("alter field %s.%s", c.Table, c.To.Name)
}

func (c AlterField) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "table", c.Table, "from name", c.From.Name, "to name", c.To.Name); err != nil {
		return nil, err
	}
	return d.AlterField(c.Table, c.From, c.To)
}

func (c AlterField) Apply(s *schema.Schema) error {
	t, err := s.Table(c.Table)
	if err != nil {
		return err
	}
	return t.ReplaceField(c.From, c.To)
}
