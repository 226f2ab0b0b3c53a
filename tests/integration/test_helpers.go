//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemashift"
	"github.com/tordrt/schemashift/internal/migration"
	"github.com/tordrt/schemashift/internal/schema"
)

// shopModel exercises tables, a composite key, a foreign key, a unique
// field and an index
const shopModel = `
tables:
  - name: customers
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: email, type: varchar, size: [255], unique: true}
      - {name: name, type: varchar, size: [100], nullable: true}
  - name: orders
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: customer_id, type: integer}
      - {name: total, type: decimal, size: [10, 2]}
    constraints:
      - name: orders_customer_fk
        type: foreign_key
        fields: [customer_id]
        reference_table: customers
        reference_fields: [id]
        on_delete: cascade
    indexes:
      - {name: orders_customer_idx, fields: [customer_id]}
`

// shopWithNotesModel adds a nullable field to customers
const shopWithNotesModel = `
tables:
  - name: customers
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: email, type: varchar, size: [255], unique: true}
      - {name: name, type: varchar, size: [100], nullable: true}
      - {name: notes, type: text, nullable: true}
  - name: orders
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: customer_id, type: integer}
      - {name: total, type: decimal, size: [10, 2]}
    constraints:
      - name: orders_customer_fk
        type: foreign_key
        fields: [customer_id]
        reference_table: customers
        reference_fields: [id]
        on_delete: cascade
    indexes:
      - {name: orders_customer_idx, fields: [customer_id]}
`

type project struct {
	dir           string
	modelPath     string
	migrationsDir string
}

func newProject(t *testing.T, model string) *project {
	t.Helper()
	dir := t.TempDir()
	p := &project{
		dir:           dir,
		modelPath:     filepath.Join(dir, "schema.yaml"),
		migrationsDir: filepath.Join(dir, "migrations"),
	}
	p.setModel(t, model)
	return p
}

func (p *project) setModel(t *testing.T, model string) {
	t.Helper()
	require.NoError(t, os.WriteFile(p.modelPath, []byte(model), 0o644))
}

func (p *project) open(t *testing.T, url string) *schemashift.Engine {
	t.Helper()
	eng, err := schemashift.Open(context.Background(), schemashift.Options{
		DatabaseURL:   url,
		MigrationsDir: p.migrationsDir,
		ModelPath:     p.modelPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// saveBroken writes a migration whose upgrade fails after its dependency
func (p *project) saveBroken(t *testing.T, name string, deps ...string) {
	t.Helper()
	err := migration.NewDir(p.migrationsDir).Save(&migration.Migration{
		Name:          name,
		Dependencies:  deps,
		UpgradeExtras: []migration.Extra{{SQL: "INSERT INTO no_such_table (id) VALUES (1)"}},
	})
	require.NoError(t, err)
}

// runLifecycle generates, applies, extends and reverts the shop model
func runLifecycle(t *testing.T, url string) {
	ctx := context.Background()
	p := newProject(t, shopModel)
	eng := p.open(t, url)

	_, err := eng.MakeMigration(ctx, "0001_shop")
	require.NoError(t, err)
	applied, err := eng.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_shop"}, applied)

	s, err := eng.Inspect(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, s.TableNames())
	verifyShop(t, s)

	p.setModel(t, shopWithNotesModel)
	m, err := eng.MakeMigration(ctx, "0002_notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_shop"}, m.Dependencies)
	_, err = eng.Migrate(ctx)
	require.NoError(t, err)

	s, err = eng.Inspect(ctx, []string{"customers"})
	require.NoError(t, err)
	verifyFields(t, s, "customers", "id", "email", "name", "notes")

	reverted, err := eng.Downgrade(ctx, "0001_shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_notes", "0001_shop"}, reverted)

	s, err = eng.Inspect(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, s.TableNames())
}

func verifyShop(t *testing.T, s *schema.Schema) {
	t.Helper()
	verifyFields(t, s, "customers", "id", "email", "name")
	customers, err := s.Table("customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, customers.PrimaryKey())
	assert.True(t, customers.Fields[customers.Field("email")].Unique)

	orders, err := s.Table("orders")
	require.NoError(t, err)
	var fk *schema.Constraint
	for i := range orders.Constraints {
		if orders.Constraints[i].Type == schema.ForeignKey {
			fk = &orders.Constraints[i]
		}
	}
	require.NotNil(t, fk, "orders foreign key")
	assert.Equal(t, []string{"customer_id"}, fk.Fields)
	assert.Equal(t, "customers", fk.ReferenceTable)
	assert.Equal(t, "cascade", fk.OnDelete)
}

func verifyFields(t *testing.T, s *schema.Schema, table string, fields ...string) {
	t.Helper()
	tbl, err := s.Table(table)
	require.NoError(t, err)
	for _, name := range fields {
		assert.GreaterOrEqual(t, tbl.Field(name), 0, "%s.%s", table, name)
	}
}
