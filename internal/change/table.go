package change

import (
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/schema"
)

// CreateTable creates a table with all of its fields
type CreateTable struct {
	Name   string         `yaml:"name"`
	Fields []schema.Field `yaml:"fields"`
}

func (CreateTable) Kind() Kind { return KindCreateTable }

func (c CreateTable) String() string { return fmt.Sprintf("create table %s", c.Name) }

func (c CreateTable) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "name", c.Name); err != nil {
		return nil, err
	}
	return d.CreateTable(c.Name, c.Fields)
}

func (c CreateTable) Apply(s *schema.Schema) error {
	if err := checkNames(c.Kind(), "name", c.Name); err != nil {
		return err
	}
	return s.AddTable(schema.Table{Name: c.Name, Fields: c.Fields})
}

// DropTable drops a table by name
type DropTable struct {
	Name string `yaml:"name"`
}

func (DropTable) Kind() Kind { return KindDropTable }

func (c DropTable) String() string { return fmt.Sprintf("drop table %s", c.Name) }

func (c DropTable) SQL(d dialect.Dialect) ([]string, error) {
	if err := checkNames(c.Kind(), "name", c.Name); err != nil {
		return nil, err
	}
	return d.DropTable(c.Name)
}

func (c DropTable) Apply(s *schema.Schema) error {
	return s.RemoveTable(c.Name)
}
