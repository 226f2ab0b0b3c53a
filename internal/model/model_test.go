package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemashift/internal/db"
	"github.com/tordrt/schemashift/internal/schema"
)

const shop = `
tables:
  - name: customers
    fields:
      - {name: id, type: bigint, primary_key: true, nullable: true}
      - {name: email, type: varchar, size: [255], unique: true}
      - {name: credit, type: numeric, size: [10, 2], default: 0}
      - {name: active, type: boolean, default: true}
      - {name: note, type: text, nullable: true, default: "'none'"}
  - name: orders
    fields:
      - {name: customer_id, type: bigint}
      - {name: line, type: integer}
    constraints:
      - {name: orders_pk, type: primary_key, fields: [customer_id, line]}
      - name: orders_customer_fk
        type: foreign_key
        fields: [customer_id]
        reference_table: customers
        reference_fields: [id]
        on_delete: cascade
    indexes:
      - {name: orders_line, fields: [line]}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(shop))
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, s.TableNames())

	customers := s.Tables["customers"]
	id := customers.Fields[customers.Field("id")]
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	credit := customers.Fields[customers.Field("credit")]
	require.NotNil(t, credit.DefaultValue)
	assert.Equal(t, "0", *credit.DefaultValue)
	assert.Equal(t, "numeric(10, 2)", credit.TypeString())
	assert.Equal(t, "true", *customers.Fields[customers.Field("active")].DefaultValue)
	assert.Equal(t, "'none'", *customers.Fields[customers.Field("note")].DefaultValue)

	orders := s.Tables["orders"]
	assert.Equal(t, []string{"customer_id", "line"}, orders.PrimaryKey())
	require.Len(t, orders.Constraints, 1)
	assert.Equal(t, schema.ForeignKey, orders.Constraints[0].Type)
	require.Len(t, orders.Indexes, 1)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "tables:\n  - name: t\n    colums: []\n"},
		{"no fields", "tables:\n  - name: t\n"},
		{"duplicate table", "tables:\n  - {name: t, fields: [{name: a, type: int}]}\n  - {name: t, fields: [{name: a, type: int}]}\n"},
		{"duplicate field", "tables:\n  - {name: t, fields: [{name: a, type: int}, {name: a, type: int}]}\n"},
		{"field without type", "tables:\n  - {name: t, fields: [{name: a}]}\n"},
		{"unknown constraint field", "tables:\n  - name: t\n    fields: [{name: a, type: int}]\n    constraints: [{name: u, type: unique, fields: [b]}]\n"},
		{"unknown constraint type", "tables:\n  - name: t\n    fields: [{name: a, type: int}]\n    constraints: [{name: u, type: exclusion, fields: [a]}]\n"},
		{"dangling reference", "tables:\n  - name: t\n    fields: [{name: a, type: int}]\n    constraints: [{name: f, type: foreign_key, fields: [a], reference_table: x, reference_fields: [id]}]\n"},
		{"index without fields", "tables:\n  - name: t\n    fields: [{name: a, type: int}]\n    indexes: [{name: i}]\n"},
		{"structured default", "tables:\n  - name: t\n    fields: [{name: a, type: int, default: [1]}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := Parse([]byte(shop))
	require.NoError(t, err)

	data, err := Marshal(s)
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)

	if diff := cmp.Diff(s, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shop), 0o644))

	s, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Tables, 2)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load(context.Background())
	assert.Error(t, err)
}

func TestDatabaseSource(t *testing.T) {
	ctx := context.Background()
	c, err := db.NewSQLiteClient(ctx, ":memory:")
	require.NoError(t, err)
	defer c.Close()

	for _, stmt := range []string{
		"CREATE TABLE widgets (id integer PRIMARY KEY, name text NOT NULL)",
		"CREATE TABLE schemashift_migrations (name varchar(255) NOT NULL PRIMARY KEY, applied_at timestamp NOT NULL)",
	} {
		_, err := c.DB().ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	ex, err := db.NewExtractor(c, "")
	require.NoError(t, err)
	s, err := DatabaseSource{Extractor: ex, Exclude: []string{"schemashift_migrations"}}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"widgets"}, s.TableNames())
}

func TestStatic(t *testing.T) {
	orig, err := Parse([]byte(shop))
	require.NoError(t, err)
	src := Static{Schema: orig}

	s, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.RemoveTable("orders"))
	assert.Len(t, orig.Tables, 2)

	empty, err := Static{}.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Tables)
}
