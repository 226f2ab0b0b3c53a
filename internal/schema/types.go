package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Constraint types
const (
	PrimaryKey = "primary_key"
	ForeignKey = "foreign_key"
	Unique     = "unique"
	Check      = "check"
)

// Schema represents a complete database schema keyed by table name
type Schema struct {
	Tables map[string]*Table `yaml:"tables" json:"tables"`
}

// Table represents a database table
type Table struct {
	Name        string       `yaml:"name" json:"name"`
	Fields      []Field      `yaml:"fields" json:"fields"`
	Indexes     []Index      `yaml:"indexes" json:"indexes"`
	Constraints []Constraint `yaml:"constraints" json:"constraints"`
}

// Field represents a table column
type Field struct {
	Name         string  `yaml:"name" json:"name"`
	Type         string  `yaml:"type" json:"type"`
	Nullable     bool    `yaml:"nullable" json:"nullable"`
	PrimaryKey   bool    `yaml:"primary_key" json:"primary_key"`
	Unique       bool    `yaml:"unique" json:"unique"`
	DefaultValue *string `yaml:"default" json:"default"`
	Size         []int   `yaml:"size" json:"size"`
}

// Index represents a database index
type Index struct {
	Name    string            `yaml:"name" json:"name"`
	Fields  []string          `yaml:"fields" json:"fields"`
	Type    string            `yaml:"type" json:"type"`
	Unique  bool              `yaml:"unique" json:"unique"`
	Options map[string]string `yaml:"options" json:"options"`
}

// Constraint represents a table constraint. Primary keys are carried on
// fields; a Constraint of type PrimaryKey only ever appears in diff input.
type Constraint struct {
	Name            string   `yaml:"name" json:"name"`
	Type            string   `yaml:"type" json:"type"`
	Fields          []string `yaml:"fields" json:"fields"`
	OnDelete        string   `yaml:"on_delete" json:"on_delete"`
	OnUpdate        string   `yaml:"on_update" json:"on_update"`
	MatchType       string   `yaml:"match_type" json:"match_type"`
	Deferrable      bool     `yaml:"deferrable" json:"deferrable"`
	ReferenceTable  string   `yaml:"reference_table" json:"reference_table"`
	ReferenceFields []string `yaml:"reference_fields" json:"reference_fields"`
	Expression      string   `yaml:"expression" json:"expression"`
}

// New creates an empty schema
func New() *Schema {
	return &Schema{Tables: make(map[string]*Table)}
}

// TableNames returns the table names in lexical order
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table looks up a table by name
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.Tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// AddTable inserts a table, rejecting duplicate table or field names
func (s *Schema) AddTable(t Table) error {
	if s.Tables == nil {
		s.Tables = make(map[string]*Table)
	}
	if _, ok := s.Tables[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateField, t.Name, f.Name)
		}
		seen[f.Name] = true
	}
	c := t.Clone()
	s.Tables[t.Name] = &c
	return nil
}

// RemoveTable deletes a table by name
func (s *Schema) RemoveTable(name string) error {
	if _, ok := s.Tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	delete(s.Tables, name)
	return nil
}

// Clone returns a deep copy of the schema
func (s *Schema) Clone() *Schema {
	out := New()
	for name, t := range s.Tables {
		c := t.Clone()
		out.Tables[name] = &c
	}
	return out
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := Table{Name: t.Name}
	if t.Fields != nil {
		out.Fields = make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			out.Indexes[i] = idx.Clone()
		}
	}
	if t.Constraints != nil {
		out.Constraints = make([]Constraint, len(t.Constraints))
		for i, c := range t.Constraints {
			out.Constraints[i] = c.Clone()
		}
	}
	return out
}

// Field returns the position of the named field, or -1
func (t *Table) Field(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// PrimaryKey lists primary key field names in field order
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, f := range t.Fields {
		if f.PrimaryKey {
			pk = append(pk, f.Name)
		}
	}
	return pk
}

// AddField appends a field
func (t *Table) AddField(f Field) error {
	if t.Field(f.Name) >= 0 {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, t.Name, f.Name)
	}
	t.Fields = append(t.Fields, f.Clone())
	return nil
}

// RemoveField deletes a field by name
func (t *Table) RemoveField(name string) error {
	i := t.Field(name)
	if i < 0 {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.Name, name)
	}
	t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)
	return nil
}

// ReplaceField swaps the field named from.Name for to, keeping its position
func (t *Table) ReplaceField(from, to Field) error {
	i := t.Field(from.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.Name, from.Name)
	}
	if to.Name != from.Name && t.Field(to.Name) >= 0 {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, t.Name, to.Name)
	}
	t.Fields[i] = to.Clone()
	return nil
}

// AddConstraint appends a constraint
func (t *Table) AddConstraint(c Constraint) error {
	for _, existing := range t.Constraints {
		if existing.Name == c.Name {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateConstraint, t.Name, c.Name)
		}
	}
	t.Constraints = append(t.Constraints, c.Clone())
	return nil
}

// RemoveConstraint deletes a constraint by name
func (t *Table) RemoveConstraint(name string) error {
	for i, c := range t.Constraints {
		if c.Name == name {
			t.Constraints = append(t.Constraints[:i], t.Constraints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownConstraint, t.Name, name)
}

// AddIndex appends an index
func (t *Table) AddIndex(idx Index) error {
	for _, existing := range t.Indexes {
		if existing.Name == idx.Name {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateIndex, t.Name, idx.Name)
		}
	}
	t.Indexes = append(t.Indexes, idx.Clone())
	return nil
}

// RemoveIndex deletes an index by name
func (t *Table) RemoveIndex(name string) error {
	for i, idx := range t.Indexes {
		if idx.Name == name {
			t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownIndex, t.Name, name)
}

// Clone returns a deep copy of the field
func (f Field) Clone() Field {
	out := f
	if f.DefaultValue != nil {
		v := *f.DefaultValue
		out.DefaultValue = &v
	}
	if f.Size != nil {
		out.Size = append([]int(nil), f.Size...)
	}
	return out
}

// Equal reports whether two field specs are attribute-identical
func (f Field) Equal(o Field) bool {
	if f.Name != o.Name || f.Type != o.Type || f.Nullable != o.Nullable ||
		f.PrimaryKey != o.PrimaryKey || f.Unique != o.Unique {
		return false
	}
	if (f.DefaultValue == nil) != (o.DefaultValue == nil) {
		return false
	}
	if f.DefaultValue != nil && *f.DefaultValue != *o.DefaultValue {
		return false
	}
	if len(f.Size) != len(o.Size) {
		return false
	}
	for i := range f.Size {
		if f.Size[i] != o.Size[i] {
			return false
		}
	}
	return true
}

// TypeString renders the type with its size, e.g. varchar(255)
func (f Field) TypeString() string {
	if len(f.Size) == 0 {
		return f.Type
	}
	parts := make([]string, len(f.Size))
	for i, n := range f.Size {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("%s(%s)", f.Type, strings.Join(parts, ", "))
}

// Clone returns a deep copy of the index
func (idx Index) Clone() Index {
	out := idx
	if idx.Fields != nil {
		out.Fields = append([]string(nil), idx.Fields...)
	}
	if idx.Options != nil {
		out.Options = make(map[string]string, len(idx.Options))
		for k, v := range idx.Options {
			out.Options[k] = v
		}
	}
	return out
}

// Equal reports whether two indexes are attribute-identical
func (idx Index) Equal(o Index) bool {
	if idx.Name != o.Name || idx.Type != o.Type || idx.Unique != o.Unique {
		return false
	}
	if !equalStrings(idx.Fields, o.Fields) || len(idx.Options) != len(o.Options) {
		return false
	}
	for k, v := range idx.Options {
		if ov, ok := o.Options[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the constraint
func (c Constraint) Clone() Constraint {
	out := c
	if c.Fields != nil {
		out.Fields = append([]string(nil), c.Fields...)
	}
	if c.ReferenceFields != nil {
		out.ReferenceFields = append([]string(nil), c.ReferenceFields...)
	}
	return out
}

// Equal reports whether two constraints are attribute-identical
func (c Constraint) Equal(o Constraint) bool {
	return c.Name == o.Name && c.Type == o.Type &&
		c.OnDelete == o.OnDelete && c.OnUpdate == o.OnUpdate &&
		c.MatchType == o.MatchType && c.Deferrable == o.Deferrable &&
		c.ReferenceTable == o.ReferenceTable && c.Expression == o.Expression &&
		equalStrings(c.Fields, o.Fields) && equalStrings(c.ReferenceFields, o.ReferenceFields)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
