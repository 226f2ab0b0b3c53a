package diff

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/schema"
)

// ErrCrossTableAlter is returned for a FieldChanged spanning two tables
var ErrCrossTableAlter = errors.New("field alteration across tables")

// Translate turns diff primitives into an ordered change list.
//
// Changes are grouped so that drops of constraints and indexes precede
// field and table drops, and table creation precedes the constraints and
// indexes that hang off it. Within a group, input order is kept. Primary
// key constraints are skipped since primary-key-ness lives on the field.
func Translate(prims []Primitive) ([]change.Change, error) {
	var (
		dropConstraints   []change.Change
		dropIndexes       []change.Change
		dropFields        []change.Change
		dropTables        []change.Change
		createTables      []change.Change
		addFields         []change.Change
		alterFields       []change.Change
		createConstraints []change.Change
		createIndexes     []change.Change
	)

	for _, p := range prims {
		switch p := p.(type) {
		case TableAdded:
			createTables = append(createTables, change.CreateTable{Name: p.Table.Name, Fields: p.Table.Fields})
			for _, c := range p.Table.Constraints {
				if c.Type == schema.PrimaryKey {
					continue
				}
				createConstraints = append(createConstraints, change.CreateConstraint{Table: p.Table.Name, Constraint: c})
			}
			for _, idx := range p.Table.Indexes {
				createIndexes = append(createIndexes, change.CreateIndex{Table: p.Table.Name, Index: idx})
			}
		case TableRemoved:
			dropTables = append(dropTables, change.DropTable{Name: p.Table.Name})
		case FieldAdded:
			addFields = append(addFields, change.AddField{Table: p.Table, Field: p.Field})
		case FieldRemoved:
			dropFields = append(dropFields, change.DropField{Table: p.Table, Name: p.Field.Name})
		case FieldChanged:
			if p.FromTable != p.ToTable {
				return nil, fmt.Errorf("%w: %s.%s -> %s.%s", ErrCrossTableAlter, p.FromTable, p.From.Name, p.ToTable, p.To.Name)
			}
			if p.From.Equal(p.To) {
				continue
			}
			alterFields = append(alterFields, change.AlterField{Table: p.ToTable, From: p.From, To: p.To})
		case ConstraintAdded:
			if p.Constraint.Type != schema.PrimaryKey {
				createConstraints = append(createConstraints, change.CreateConstraint{Table: p.Table, Constraint: p.Constraint})
			}
		case ConstraintRemoved:
			if p.Constraint.Type != schema.PrimaryKey {
				dropConstraints = append(dropConstraints, change.DropConstraint{Table: p.Table, Constraint: p.Constraint})
			}
		case IndexAdded:
			createIndexes = append(createIndexes, change.CreateIndex{Table: p.Table, Index: p.Index})
		case IndexRemoved:
			dropIndexes = append(dropIndexes, change.DropIndex{Table: p.Table, Index: p.Index})
		default:
			return nil, fmt.Errorf("unknown diff primitive %T", p)
		}
	}

	var out []change.Change
	for _, group := range [][]change.Change{
		dropConstraints, dropIndexes, dropFields, dropTables,
		createTables, addFields, alterFields, createConstraints, createIndexes,
	} {
		out = append(out, group...)
	}
	return out, nil
}

// Plan diffs from against to with d and translates the result
func Plan(d Differ, from, to *schema.Schema) ([]change.Change, error) {
	if d == nil {
		d = Default
	}
	prims, err := d.Diff(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to diff schemas: %w", err)
	}
	return Translate(prims)
}
