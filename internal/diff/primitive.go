// Package diff compares schema snapshots and translates the differences
// into an ordered list of changes.
package diff

import "github.com/tordrt/schemashift/internal/schema"

// Primitive is a single raw difference between two schemas
type Primitive interface {
	primitive()
}

// TableAdded reports a table present only in the target
type TableAdded struct {
	Table schema.Table
}

// TableRemoved reports a table present only in the source
type TableRemoved struct {
	Table schema.Table
}

// FieldAdded reports a new field on an existing table
type FieldAdded struct {
	Table string
	Field schema.Field
}

// FieldRemoved reports a field dropped from an existing table
type FieldRemoved struct {
	Table string
	Field schema.Field
}

// FieldChanged reports a field whose attributes (possibly its name) differ.
// FromTable and ToTable must match; anything else is a malformed diff.
type FieldChanged struct {
	FromTable string
	ToTable   string
	From      schema.Field
	To        schema.Field
}

// ConstraintAdded reports a new constraint
type ConstraintAdded struct {
	Table      string
	Constraint schema.Constraint
}

// ConstraintRemoved reports a dropped constraint
type ConstraintRemoved struct {
	Table      string
	Constraint schema.Constraint
}

// IndexAdded reports a new index
type IndexAdded struct {
	Table string
	Index schema.Index
}

// IndexRemoved reports a dropped index
type IndexRemoved struct {
	Table string
	Index schema.Index
}

func (TableAdded) primitive()        {}
func (TableRemoved) primitive()      {}
func (FieldAdded) primitive()        {}
func (FieldRemoved) primitive()      {}
func (FieldChanged) primitive()      {}
func (ConstraintAdded) primitive()   {}
func (ConstraintRemoved) primitive() {}
func (IndexAdded) primitive()        {}
func (IndexRemoved) primitive()      {}

// Differ produces the primitives that turn from into to
type Differ interface {
	Diff(from, to *schema.Schema) ([]Primitive, error)
}

// DifferFunc adapts a function to the Differ interface
type DifferFunc func(from, to *schema.Schema) ([]Primitive, error)

func (f DifferFunc) Diff(from, to *schema.Schema) ([]Primitive, error) { return f(from, to) }

// Default is the name-matching comparer used when no Differ is injected
var Default Differ = DifferFunc(func(from, to *schema.Schema) ([]Primitive, error) {
	return Compare(from, to), nil
})
