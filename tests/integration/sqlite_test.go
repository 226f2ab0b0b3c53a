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
)

// SQLite cannot add a foreign key to an existing table, so this model
// keeps to what it can express
const libraryModel = `
tables:
  - name: authors
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: email, type: varchar, size: [255], unique: true}
      - {name: bio, type: text, nullable: true}
  - name: books
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: author_id, type: integer}
      - {name: title, type: varchar, size: [200]}
    indexes:
      - {name: books_author_idx, fields: [author_id]}
`

func sqliteURL(t *testing.T) string {
	return "sqlite://" + filepath.Join(t.TempDir(), "test.db")
}

func TestSQLiteLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newProject(t, libraryModel)
	eng := p.open(t, sqliteURL(t))

	_, err := eng.MakeMigration(ctx, "0001_library")
	require.NoError(t, err)
	_, err = eng.Migrate(ctx)
	require.NoError(t, err)

	s, err := eng.Inspect(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"authors", "books"}, s.TableNames())
	verifyFields(t, s, "books", "id", "author_id", "title")
	books, err := s.Table("books")
	require.NoError(t, err)
	require.Len(t, books.Indexes, 1)
	assert.Equal(t, []string{"author_id"}, books.Indexes[0].Fields)

	reverted, err := eng.Downgrade(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_library"}, reverted)
	s, err = eng.Inspect(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, s.TableNames())
}

func TestSQLiteFailedRunRollsBack(t *testing.T) {
	ctx := context.Background()
	p := newProject(t, libraryModel)
	eng := p.open(t, sqliteURL(t))

	_, err := eng.MakeMigration(ctx, "0001_library")
	require.NoError(t, err)
	p.saveBroken(t, "0002_broken", "0001_library")

	_, err = eng.Migrate(ctx)
	require.Error(t, err)

	s, err := eng.Inspect(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, s.TableNames())
}

// A model written from an inspected database describes that database, so
// generating against the same history finds nothing to do
func TestSQLiteInspectedModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	url := sqliteURL(t)
	p := newProject(t, libraryModel)
	eng := p.open(t, url)

	_, err := eng.MakeMigration(ctx, "0001_library")
	require.NoError(t, err)
	_, err = eng.Migrate(ctx)
	require.NoError(t, err)

	s, err := eng.Inspect(ctx, nil)
	require.NoError(t, err)
	data, err := schemashift.MarshalModel(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.modelPath, data, 0o644))

	_, err = eng.MakeMigration(ctx, "0002_noop")
	assert.ErrorIs(t, err, schemashift.ErrNoChanges)
}
