package diff

import (
	"sort"

	"github.com/tordrt/schemashift/internal/schema"
)

// Compare matches tables, fields, constraints and indexes by name. A field
// whose attributes differ is reported as FieldChanged; a changed constraint
// or index is reported as removed and re-added. Renames are not detected.
func Compare(from, to *schema.Schema) []Primitive {
	if from == nil {
		from = schema.New()
	}
	if to == nil {
		to = schema.New()
	}

	var out []Primitive
	for _, name := range unionNames(from.TableNames(), to.TableNames()) {
		oldT, inOld := from.Tables[name]
		newT, inNew := to.Tables[name]
		switch {
		case !inNew:
			out = append(out, TableRemoved{Table: oldT.Clone()})
		case !inOld:
			out = append(out, TableAdded{Table: newT.Clone()})
		default:
			out = append(out, compareTable(oldT, newT)...)
		}
	}
	return out
}

func compareTable(from, to *schema.Table) []Primitive {
	var out []Primitive

	for _, f := range from.Fields {
		if to.Field(f.Name) < 0 {
			out = append(out, FieldRemoved{Table: from.Name, Field: f.Clone()})
		}
	}
	for _, f := range to.Fields {
		i := from.Field(f.Name)
		if i < 0 {
			out = append(out, FieldAdded{Table: to.Name, Field: f.Clone()})
			continue
		}
		if old := from.Fields[i]; !old.Equal(f) {
			out = append(out, FieldChanged{FromTable: from.Name, ToTable: to.Name, From: old.Clone(), To: f.Clone()})
		}
	}

	oldC := constraintsByName(from.Constraints)
	newC := constraintsByName(to.Constraints)
	for _, name := range unionNames(keys(oldC), keys(newC)) {
		o, inOld := oldC[name]
		n, inNew := newC[name]
		if inOld && (!inNew || !o.Equal(n)) {
			out = append(out, ConstraintRemoved{Table: from.Name, Constraint: o.Clone()})
		}
		if inNew && (!inOld || !o.Equal(n)) {
			out = append(out, ConstraintAdded{Table: to.Name, Constraint: n.Clone()})
		}
	}

	oldI := indexesByName(from.Indexes)
	newI := indexesByName(to.Indexes)
	for _, name := range unionNames(keys(oldI), keys(newI)) {
		o, inOld := oldI[name]
		n, inNew := newI[name]
		if inOld && (!inNew || !o.Equal(n)) {
			out = append(out, IndexRemoved{Table: from.Name, Index: o.Clone()})
		}
		if inNew && (!inOld || !o.Equal(n)) {
			out = append(out, IndexAdded{Table: to.Name, Index: n.Clone()})
		}
	}
	return out
}

func constraintsByName(cs []schema.Constraint) map[string]schema.Constraint {
	m := make(map[string]schema.Constraint, len(cs))
	for _, c := range cs {
		m[c.Name] = c
	}
	return m
}

func indexesByName(idxs []schema.Index) map[string]schema.Index {
	m := make(map[string]schema.Index, len(idxs))
	for _, idx := range idxs {
		m[idx.Name] = idx
	}
	return m
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func unionNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}
