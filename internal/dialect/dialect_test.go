package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemashift/internal/schema"
)

func strPtr(s string) *string { return &s }

func TestGet(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres", "postgres"},
		{"PostgreSQL", "postgres"},
		{"pgx", "postgres"},
		{"mysql", "mysql"},
		{"sqlite3", "sqlite"},
		{" sqlite ", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := Get(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := Get("oracle")
	assert.ErrorIs(t, err, ErrUnknownDialect)
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, Names())
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name   string
		pg     string
		mysql  string
		sqlite string
	}{
		{"users", "users", "users", "users"},
		{"user", `"user"`, "`user`", `"user"`},
		{"CamelCase", `"CamelCase"`, "`CamelCase`", `"CamelCase"`},
		{`we"ird`, `"we""ird"`, "`we\"ird`", `"we""ird"`},
		{"back`tick", "\"back`tick\"", "`back``tick`", "\"back`tick\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pg, Postgres{}.QuoteIdent(tt.name))
			assert.Equal(t, tt.mysql, MySQL{}.QuoteIdent(tt.name))
			assert.Equal(t, tt.sqlite, SQLite{}.QuoteIdent(tt.name))
		})
	}
}

func TestCreateTable(t *testing.T) {
	fields := []schema.Field{
		{Name: "id", Type: "integer", PrimaryKey: true},
		{Name: "email", Type: "varchar", Size: []int{255}, Unique: true},
		{Name: "score", Type: "numeric", Size: []int{10, 2}, Nullable: true, DefaultValue: strPtr("0")},
	}

	stmts, err := Postgres{}.CreateTable("users", fields)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE users (id integer NOT NULL PRIMARY KEY, email varchar(255) NOT NULL UNIQUE, score numeric(10, 2) DEFAULT 0)",
	}, stmts)

	composite := []schema.Field{
		{Name: "user_id", Type: "integer", PrimaryKey: true},
		{Name: "group_id", Type: "integer", PrimaryKey: true},
	}
	stmts, err = MySQL{}.CreateTable("memberships", composite)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE memberships (user_id integer NOT NULL, group_id integer NOT NULL, PRIMARY KEY (user_id, group_id))",
	}, stmts)
}

func TestPostgresAlterField(t *testing.T) {
	from := schema.Field{Name: "email", Type: "text"}
	to := schema.Field{Name: "mail", Type: "varchar", Size: []int{100}, Nullable: true, DefaultValue: strPtr("''"), Unique: true}

	stmts, err := Postgres{}.AlterField("users", from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users RENAME COLUMN email TO mail",
		"ALTER TABLE users ALTER COLUMN mail TYPE varchar(100)",
		"ALTER TABLE users ALTER COLUMN mail DROP NOT NULL",
		"ALTER TABLE users ALTER COLUMN mail SET DEFAULT ''",
		"ALTER TABLE users ADD CONSTRAINT users_mail_key UNIQUE (mail)",
	}, stmts)

	stmts, err = Postgres{}.AlterField("users", to, from)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users RENAME COLUMN mail TO email",
		"ALTER TABLE users ALTER COLUMN email TYPE text",
		"ALTER TABLE users ALTER COLUMN email SET NOT NULL",
		"ALTER TABLE users ALTER COLUMN email DROP DEFAULT",
		"ALTER TABLE users DROP CONSTRAINT users_mail_key",
	}, stmts)
}

func TestAlterFieldPrimaryKeyFlag(t *testing.T) {
	plain := schema.Field{Name: "tenant_id", Type: "integer"}
	keyed := schema.Field{Name: "tenant_id", Type: "integer", PrimaryKey: true}

	for _, d := range []Dialect{Postgres{}, MySQL{}, SQLite{}} {
		t.Run(d.Name(), func(t *testing.T) {
			_, err := d.AlterField("memberships", plain, keyed)
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = d.AlterField("memberships", keyed, plain)
			assert.ErrorIs(t, err, ErrUnsupported)

			stmts, err := d.AlterField("memberships", keyed, schema.Field{Name: "org_id", Type: "integer", PrimaryKey: true})
			require.NoError(t, err)
			assert.NotEmpty(t, stmts)
		})
	}
}

func TestMySQLAlterField(t *testing.T) {
	from := schema.Field{Name: "email", Type: "text"}
	to := schema.Field{Name: "email", Type: "text", Unique: true}

	stmts, err := MySQL{}.AlterField("users", from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE users ADD UNIQUE INDEX email (email)"}, stmts)

	to = schema.Field{Name: "mail", Type: "varchar", Size: []int{64}, Nullable: true}
	stmts, err = MySQL{}.AlterField("users", from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE users CHANGE COLUMN email mail varchar(64)"}, stmts)
}

func TestSQLiteAlterField(t *testing.T) {
	from := schema.Field{Name: "email", Type: "text"}

	stmts, err := SQLite{}.AlterField("users", from, schema.Field{Name: "mail", Type: "text"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE users RENAME COLUMN email TO mail"}, stmts)

	_, err = SQLite{}.AlterField("users", from, schema.Field{Name: "email", Type: "integer"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSQLiteAddUniqueField(t *testing.T) {
	stmts, err := SQLite{}.AddField("users", schema.Field{Name: "handle", Type: "text", Nullable: true, Unique: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users ADD COLUMN handle text",
		"CREATE UNIQUE INDEX users_handle_key ON users (handle)",
	}, stmts)

	_, err = SQLite{}.AddField("users", schema.Field{Name: "id", Type: "integer", PrimaryKey: true})
	assert.ErrorIs(t, err, ErrUnsupported)

	stmts, err = SQLite{}.DropField("users", "handle")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DROP INDEX IF EXISTS users_handle_key",
		"ALTER TABLE users DROP COLUMN handle",
	}, stmts)
}

func TestConstraints(t *testing.T) {
	fk := schema.Constraint{
		Name:            "orders_user_fk",
		Type:            schema.ForeignKey,
		Fields:          []string{"user_id"},
		ReferenceTable:  "users",
		ReferenceFields: []string{"id"},
		OnDelete:        "cascade",
		MatchType:       "full",
		Deferrable:      true,
	}

	stmts, err := Postgres{}.CreateConstraint("orders", fk)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE orders ADD CONSTRAINT orders_user_fk FOREIGN KEY (user_id) REFERENCES users (id) MATCH FULL ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED",
	}, stmts)

	_, err = MySQL{}.CreateConstraint("orders", fk)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = SQLite{}.CreateConstraint("orders", fk)
	assert.ErrorIs(t, err, ErrUnsupported)

	stmts, err = MySQL{}.DropConstraint("orders", fk)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE orders DROP FOREIGN KEY orders_user_fk"}, stmts)

	check := schema.Constraint{Name: "positive_total", Type: schema.Check, Expression: "total > 0"}
	stmts, err = Postgres{}.CreateConstraint("orders", check)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER TABLE orders ADD CONSTRAINT positive_total CHECK (total > 0)"}, stmts)

	uq := schema.Constraint{Name: "orders_number_key", Type: schema.Unique, Fields: []string{"number"}}
	stmts, err = SQLite{}.CreateConstraint("orders", uq)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE UNIQUE INDEX orders_number_key ON orders (number)"}, stmts)
}

func TestIndexes(t *testing.T) {
	idx := schema.Index{
		Name:    "idx_docs_body",
		Fields:  []string{"body"},
		Type:    "GIN",
		Options: map[string]string{"fastupdate": "off", "gin_pending_list_limit": "64"},
	}

	stmts, err := Postgres{}.CreateIndex("docs", idx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE INDEX idx_docs_body ON docs USING gin (body) WITH (fastupdate = off, gin_pending_list_limit = 64)",
	}, stmts)

	_, err = SQLite{}.CreateIndex("docs", idx)
	assert.ErrorIs(t, err, ErrUnsupported)

	plain := schema.Index{Name: "idx_docs_title", Fields: []string{"title", "created_at"}, Unique: true, Type: "btree"}
	stmts, err = MySQL{}.CreateIndex("docs", plain)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE UNIQUE INDEX idx_docs_title ON docs (title, created_at) USING BTREE"}, stmts)

	stmts, err = MySQL{}.DropIndex("docs", plain)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP INDEX idx_docs_title ON docs"}, stmts)

	stmts, err = Postgres{}.DropIndex("docs", plain)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP INDEX idx_docs_title"}, stmts)
}
