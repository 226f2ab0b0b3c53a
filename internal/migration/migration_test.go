package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/schema"
)

func mig(name string, deps ...string) *Migration {
	return &Migration{Name: name, Dependencies: deps}
}

func TestNewName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "20240309130507_auto", NewName(now, ""))
	assert.Equal(t, "20240309130507_add_users_table", NewName(now, "Add users-table"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("0001_initial"))
	for _, bad := range []string{"", "  ", "a/b", `a\b`, ".."} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestValidateExtras(t *testing.T) {
	m := mig("0001")
	m.UpgradeExtras = []Extra{{SQL: "select 1", Hook: "seed"}}
	assert.ErrorIs(t, m.Validate(), ErrInvalidExtra)

	m.UpgradeExtras = []Extra{{}}
	assert.ErrorIs(t, m.Validate(), ErrInvalidExtra)

	m.UpgradeExtras = []Extra{{Hook: "seed"}}
	assert.NoError(t, m.Validate())
}

func TestCodecRoundTrip(t *testing.T) {
	m := &Migration{
		Name:         "20240101000000_initial",
		Dependencies: []string{"0000_base"},
		Upgrade: []change.Change{
			change.CreateTable{Name: "users", Fields: []schema.Field{{Name: "id", Type: "integer", PrimaryKey: true}}},
			change.CreateIndex{Table: "users", Index: schema.Index{Name: "idx_users_id", Fields: []string{"id"}}},
		},
		Downgrade: []change.Change{
			change.DropTable{Name: "users"},
		},
		UpgradeExtras:   []Extra{{SQL: "INSERT INTO users (id) VALUES (1)"}},
		DowngradeExtras: []Extra{{Hook: "notify"}},
	}

	data, err := Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- op: create_table\n")

	got, err := Unmarshal(data)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalRejectsUnknownKeys(t *testing.T) {
	_, err := Unmarshal([]byte("name: a\ndependencies: []\nupgrade: []\ndowngrade: []\napplied: true\n"))
	assert.Error(t, err)

	_, err = Unmarshal([]byte("name: a\nupgrade:\n  - op: rename_table\n"))
	assert.ErrorIs(t, err, change.ErrUnknownKind)
}

func TestDirStore(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "migrations"))

	loaded, err := dir.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded, "missing directory is an empty history")

	require.NoError(t, dir.Save(mig("0002_second", "0001_first")))
	require.NoError(t, dir.Save(mig("0001_first")))
	assert.ErrorIs(t, dir.Save(mig("0001_first")), ErrDuplicateName)
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path, "README.md"), []byte("notes"), 0644))

	loaded, err = dir.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "0001_first", loaded[0].Name)
	assert.Equal(t, []string{"0001_first"}, loaded[1].Dependencies)
}

func TestDirStoreLeavesNoPartialFiles(t *testing.T) {
	dir := NewDir(t.TempDir())
	first := mig("0001_first")
	require.NoError(t, dir.Save(first))
	want, err := os.ReadFile(dir.File("0001_first"))
	require.NoError(t, err)

	again := mig("0001_first")
	again.Dependencies = []string{"0000_other"}
	assert.ErrorIs(t, dir.Save(again), ErrDuplicateName)
	assert.ErrorIs(t, dir.Save(mig("a/b")), ErrInvalidName)

	got, err := os.ReadFile(dir.File("0001_first"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(dir.Path)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"0001_first.yaml"}, names)
}

func TestDirStoreNameMismatch(t *testing.T) {
	dir := NewDir(t.TempDir())
	data, err := Marshal(mig("0001_first"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path, "other.yaml"), data, 0644))

	_, err = dir.Load()
	assert.ErrorContains(t, err, "expected \"other\"")
}

func TestGraphOrderDeterministic(t *testing.T) {
	set := []*Migration{
		mig("d", "b", "c"),
		mig("c", "a"),
		mig("b", "a"),
		mig("a"),
		mig("x"),
	}

	g, err := NewGraph(set)
	require.NoError(t, err)
	want := []string{"a", "b", "c", "d", "x"}
	assert.Equal(t, want, g.Names())

	for i := 0; i < 20; i++ {
		reversed := make([]*Migration, len(set))
		for j, m := range set {
			reversed[len(set)-1-j] = m
		}
		set = reversed
		g, err := NewGraph(set)
		require.NoError(t, err)
		assert.Equal(t, want, g.Names())
	}
}

func TestGraphRejectsCycles(t *testing.T) {
	tests := []struct {
		name string
		set  []*Migration
	}{
		{"self", []*Migration{mig("a", "a")}},
		{"two", []*Migration{mig("a", "b"), mig("b", "a")}},
		{"three", []*Migration{mig("a", "c"), mig("b", "a"), mig("c", "b")}},
		{"tail", []*Migration{mig("root"), mig("a", "root", "d"), mig("b", "a"), mig("c", "b"), mig("d", "c")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.set)
			assert.ErrorIs(t, err, ErrCycle)
		})
	}
}

func TestGraphRejectsBadInput(t *testing.T) {
	_, err := NewGraph([]*Migration{mig("a", "missing")})
	assert.ErrorIs(t, err, ErrUnknownDependency)

	_, err = NewGraph([]*Migration{mig("a"), mig("a")})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestSinks(t *testing.T) {
	g, err := NewGraph([]*Migration{mig("a"), mig("b", "a"), mig("c", "b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, g.Sinks())

	g, err = NewGraph([]*Migration{mig("a1"), mig("a2", "a1"), mig("b1"), mig("b2", "b1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b2"}, g.Sinks())

	g, err = NewGraph(nil)
	require.NoError(t, err)
	assert.Empty(t, g.Sinks())
}

func TestDependents(t *testing.T) {
	g, err := NewGraph([]*Migration{mig("a"), mig("b", "a"), mig("c", "b"), mig("d")})
	require.NoError(t, err)

	deps, err := g.Dependents("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, deps)

	_, err = g.Dependents("zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProtoschemaReplay(t *testing.T) {
	set := []*Migration{
		{
			Name:         "0002_posts",
			Dependencies: []string{"0001_users"},
			Upgrade: []change.Change{
				change.CreateTable{Name: "posts", Fields: []schema.Field{{Name: "id", Type: "integer", PrimaryKey: true}}},
				change.AddField{Table: "users", Field: schema.Field{Name: "bio", Type: "text", Nullable: true}},
			},
		},
		{
			Name: "0001_users",
			Upgrade: []change.Change{
				change.CreateTable{Name: "users", Fields: []schema.Field{{Name: "id", Type: "integer", PrimaryKey: true}}},
			},
		},
	}
	g, err := NewGraph(set)
	require.NoError(t, err)

	first, err := Protoschema(g)
	require.NoError(t, err)
	second, err := Protoschema(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"posts", "users"}, first.TableNames())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("replays differ:\n%s", diff)
	}

	first.Tables["users"].Fields[0].Name = "mutated"
	assert.Equal(t, "id", second.Tables["users"].Fields[0].Name)
}

func TestProtoschemaInconsistentHistory(t *testing.T) {
	g, err := NewGraph([]*Migration{{
		Name:    "0001",
		Upgrade: []change.Change{change.DropTable{Name: "users"}},
	}})
	require.NoError(t, err)

	_, err = Protoschema(g)
	assert.ErrorIs(t, err, schema.ErrUnknownTable)
}
