// Package model loads the declarative model that migrations are generated
// from. The model file is YAML:
//
//	tables:
//	  - name: users
//	    fields:
//	      - {name: id, type: bigint, primary_key: true}
//	      - {name: email, type: varchar, size: [255], unique: true}
//	      - {name: active, type: boolean, default: true}
//	    indexes:
//	      - {name: users_active, fields: [active]}
//
// Defaults are raw SQL expressions; scalars are kept as written, so
// `default: 0` and `default: "0"` are the same.
package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"sigs.k8s.io/yaml"

	"github.com/tordrt/schemashift/internal/schema"
)

// ErrInvalid is returned for a model that is well-formed YAML but does not
// describe a usable schema
var ErrInvalid = errors.New("invalid model")

// Source produces the target schema a migration is generated towards
type Source interface {
	Load(ctx context.Context) (*schema.Schema, error)
}

type document struct {
	Tables []table `json:"tables"`
}

type table struct {
	Name        string              `json:"name"`
	Fields      []field             `json:"fields"`
	Indexes     []schema.Index      `json:"indexes,omitempty"`
	Constraints []schema.Constraint `json:"constraints,omitempty"`
}

type field struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	Default    any    `json:"default,omitempty"`
	Size       []int  `json:"size,omitempty"`
}

// FileSource reads the model from a YAML file on every Load
type FileSource struct {
	Path string
}

// Load implements Source
func (f FileSource) Load(_ context.Context) (*schema.Schema, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return s, nil
}

// Parse decodes a model document. Unknown keys are rejected.
func Parse(data []byte) (*schema.Schema, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	s := schema.New()
	for _, t := range doc.Tables {
		st, err := t.canonical()
		if err != nil {
			return nil, err
		}
		if err := s.AddTable(st); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if err := validateReferences(s); err != nil {
		return nil, err
	}
	return s, nil
}

// canonical converts a model table into the schema form: primary key
// constraints become field flags and every name is checked
func (t table) canonical() (schema.Table, error) {
	out := schema.Table{Name: t.Name}
	if t.Name == "" {
		return out, fmt.Errorf("%w: table without a name", ErrInvalid)
	}
	if len(t.Fields) == 0 {
		return out, fmt.Errorf("%w: table %s has no fields", ErrInvalid, t.Name)
	}

	for _, f := range t.Fields {
		if f.Name == "" || f.Type == "" {
			return out, fmt.Errorf("%w: table %s: fields need a name and a type", ErrInvalid, t.Name)
		}
		def, err := defaultString(f.Default)
		if err != nil {
			return out, fmt.Errorf("%w: %s.%s: %w", ErrInvalid, t.Name, f.Name, err)
		}
		sf := schema.Field{
			Name:         f.Name,
			Type:         f.Type,
			Nullable:     f.Nullable && !f.PrimaryKey,
			PrimaryKey:   f.PrimaryKey,
			Unique:       f.Unique && !f.PrimaryKey,
			DefaultValue: def,
			Size:         f.Size,
		}
		if err := out.AddField(sf); err != nil {
			return out, fmt.Errorf("%w: table %s: %w", ErrInvalid, t.Name, err)
		}
	}

	for _, c := range t.Constraints {
		if err := checkFields(&out, c.Fields); err != nil {
			return out, fmt.Errorf("%w: constraint %s: %w", ErrInvalid, c.Name, err)
		}
		switch c.Type {
		case schema.PrimaryKey:
			for _, name := range c.Fields {
				i := out.Field(name)
				out.Fields[i].PrimaryKey = true
				out.Fields[i].Nullable = false
			}
			continue
		case schema.ForeignKey:
			if c.ReferenceTable == "" || len(c.ReferenceFields) != len(c.Fields) {
				return out, fmt.Errorf("%w: foreign key %s needs a reference table and one reference field per field", ErrInvalid, c.Name)
			}
		case schema.Check:
			if c.Expression == "" {
				return out, fmt.Errorf("%w: check %s has no expression", ErrInvalid, c.Name)
			}
		case schema.Unique:
		default:
			return out, fmt.Errorf("%w: constraint %s has unknown type %q", ErrInvalid, c.Name, c.Type)
		}
		if c.Name == "" {
			return out, fmt.Errorf("%w: table %s: constraints need a name", ErrInvalid, t.Name)
		}
		if err := out.AddConstraint(c); err != nil {
			return out, fmt.Errorf("%w: table %s: %w", ErrInvalid, t.Name, err)
		}
	}

	for _, idx := range t.Indexes {
		if idx.Name == "" || len(idx.Fields) == 0 {
			return out, fmt.Errorf("%w: table %s: indexes need a name and fields", ErrInvalid, t.Name)
		}
		if err := checkFields(&out, idx.Fields); err != nil {
			return out, fmt.Errorf("%w: index %s: %w", ErrInvalid, idx.Name, err)
		}
		if err := out.AddIndex(idx); err != nil {
			return out, fmt.Errorf("%w: table %s: %w", ErrInvalid, t.Name, err)
		}
	}
	return out, nil
}

func checkFields(t *schema.Table, names []string) error {
	for _, name := range names {
		if t.Field(name) < 0 {
			return fmt.Errorf("%w: %s.%s", schema.ErrUnknownField, t.Name, name)
		}
	}
	return nil
}

// validateReferences checks that every foreign key points at a declared
// table and field
func validateReferences(s *schema.Schema) error {
	for _, name := range s.TableNames() {
		for _, c := range s.Tables[name].Constraints {
			if c.Type != schema.ForeignKey {
				continue
			}
			ref, err := s.Table(c.ReferenceTable)
			if err != nil {
				return fmt.Errorf("%w: foreign key %s: %w", ErrInvalid, c.Name, err)
			}
			if err := checkFields(ref, c.ReferenceFields); err != nil {
				return fmt.Errorf("%w: foreign key %s: %w", ErrInvalid, c.Name, err)
			}
		}
	}
	return nil
}

func defaultString(v any) (*string, error) {
	var s string
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return nil, fmt.Errorf("default must be a scalar, got %T", v)
	}
	return &s, nil
}

// Marshal renders a schema as a model document that Parse reads back into
// an equal schema. Tables are written in name order.
func Marshal(s *schema.Schema) ([]byte, error) {
	var doc document
	for _, name := range s.TableNames() {
		t := s.Tables[name]
		mt := table{Name: t.Name, Indexes: t.Indexes, Constraints: t.Constraints}
		for _, f := range t.Fields {
			mf := field{
				Name:       f.Name,
				Type:       f.Type,
				Nullable:   f.Nullable,
				PrimaryKey: f.PrimaryKey,
				Unique:     f.Unique,
				Size:       f.Size,
			}
			if f.DefaultValue != nil {
				mf.Default = *f.DefaultValue
			}
			mt.Fields = append(mt.Fields, mf)
		}
		doc.Tables = append(doc.Tables, mt)
	}
	return yaml.Marshal(doc)
}
