// Package runner generates migrations from the model and applies them to a
// database.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/db"
	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/diff"
	"github.com/tordrt/schemashift/internal/migration"
	"github.com/tordrt/schemashift/internal/model"
)

var (
	// ErrNoChanges is returned by MakeMigration when the model matches history
	ErrNoChanges = errors.New("no changes detected")
	// ErrUnknownHook is returned for an extra naming a hook that is not registered
	ErrUnknownHook = errors.New("unknown hook")
	// ErrNotApplied is returned when downgrading a migration that is not applied
	ErrNotApplied = errors.New("migration not applied")
	// ErrNoDatabase is returned by operations that need a connection when none was given
	ErrNoDatabase = errors.New("no database configured")
	// ErrNoModel is returned by MakeMigration when no model source was given
	ErrNoModel = errors.New("no model configured")
)

// Hook is a Go side effect a migration can name in its extras. It runs in
// the migration's transaction scope.
type Hook func(ctx context.Context, ex db.Execer) error

// Hooks maps hook names to implementations
type Hooks map[string]Hook

// Options configures a Runner. Only Store is always required: Source is
// needed to generate migrations and Client to apply them.
type Options struct {
	Store  migration.Store
	Source model.Source
	// Differ defaults to diff.Default
	Differ diff.Differ
	Client *db.Client
	// RecorderTable defaults to db.DefaultRecorderTable
	RecorderTable string
	Hooks         Hooks
	// Logger defaults to a disabled logger
	Logger *zerolog.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// Runner orchestrates migration generation, application and rollback
type Runner struct {
	store    migration.Store
	source   model.Source
	differ   diff.Differ
	client   *db.Client
	recorder *db.Recorder
	hooks    Hooks
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a runner
func New(opts Options) *Runner {
	r := &Runner{
		store:  opts.Store,
		source: opts.Source,
		differ: opts.Differ,
		client: opts.Client,
		hooks:  opts.Hooks,
		log:    zerolog.Nop(),
		now:    opts.Now,
	}
	if r.differ == nil {
		r.differ = diff.Default
	}
	if r.now == nil {
		r.now = time.Now
	}
	if opts.Logger != nil {
		r.log = opts.Logger.With().Str("component", "runner").Logger()
	}
	if r.client != nil {
		r.recorder = db.NewRecorder(r.client.Dialect(), opts.RecorderTable)
	}
	return r
}

// Graph loads every stored migration into a dependency graph
func (r *Runner) Graph() (*migration.Graph, error) {
	migrations, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return migration.NewGraph(migrations)
}

// Plan builds the next migration without saving it. An empty name gets a
// generated timestamped one. ErrNoChanges is returned when the model
// already matches the replayed history.
func (r *Runner) Plan(ctx context.Context, name string) (*migration.Migration, error) {
	if r.source == nil {
		return nil, ErrNoModel
	}
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	baseline, err := migration.Protoschema(g)
	if err != nil {
		return nil, err
	}
	target, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	upgrade, err := diff.Plan(r.differ, baseline, target)
	if err != nil {
		return nil, err
	}
	if len(upgrade) == 0 {
		return nil, ErrNoChanges
	}
	downgrade, err := diff.Plan(r.differ, target, baseline)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = migration.NewName(r.now(), "")
	}
	if _, err := g.Get(name); err == nil {
		return nil, fmt.Errorf("%w: %s", migration.ErrDuplicateName, name)
	}

	m := &migration.Migration{
		Name:         name,
		Dependencies: g.Sinks(),
		Upgrade:      upgrade,
		Downgrade:    downgrade,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	// the new migration must replay cleanly on top of history
	if err := change.Apply(baseline, upgrade); err != nil {
		return nil, fmt.Errorf("generated migration does not apply: %w", err)
	}
	// and render for the connected database in both directions
	if d := r.Dialect(); d != nil {
		for _, steps := range [][]change.Change{upgrade, downgrade} {
			if _, err := change.SQL(d, steps); err != nil {
				return nil, fmt.Errorf("generated migration cannot be rendered for %s: %w", d.Name(), err)
			}
		}
	}
	return m, nil
}

// MakeMigration plans the next migration and saves it to the store. Nothing
// is written when planning fails or finds no changes.
func (r *Runner) MakeMigration(ctx context.Context, name string) (*migration.Migration, error) {
	m, err := r.Plan(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := r.store.Save(m); err != nil {
		return nil, fmt.Errorf("failed to save migration %s: %w", m.Name, err)
	}
	r.log.Info().Str("migration", m.Name).Int("steps", len(m.Upgrade)).Strs("dependencies", m.Dependencies).Msg("created migration")
	return m, nil
}

// begin prepares the recorder and opens the run-level scope. The recorder
// table is created before the scope since MySQL DDL commits implicitly.
func (r *Runner) begin(ctx context.Context) (*db.Scope, error) {
	if r.client == nil {
		return nil, ErrNoDatabase
	}
	if err := r.recorder.Ensure(ctx, r.client.DB()); err != nil {
		return nil, err
	}
	scope, err := r.client.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if !scope.Nestable() {
		r.log.Warn().Str("dialect", r.client.Dialect().Name()).
			Msg("dialect has no transactional DDL; a failed migration can leave earlier changes applied")
	}
	return scope, nil
}

// Migrate applies every unapplied migration in graph order and returns the
// names applied. The whole run is one transaction: if any migration fails,
// none of the run's migrations are recorded.
func (r *Runner) Migrate(ctx context.Context) ([]string, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	scope, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Rollback()

	var applied []string
	for _, m := range g.Order() {
		done, err := r.recorder.IsApplied(ctx, scope.Execer(), m.Name)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		if err := r.checkHooks(m.UpgradeExtras); err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.Name, err)
		}

		err = scope.Nested(ctx, func(ex db.Execer) error {
			if err := r.run(ctx, ex, m.Name, m.Upgrade, m.UpgradeExtras); err != nil {
				return err
			}
			return r.recorder.MarkApplied(ctx, ex, m.Name, r.now())
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		r.log.Info().Str("migration", m.Name).Msg("applied migration")
		applied = append(applied, m.Name)
	}

	if err := scope.Commit(); err != nil {
		return nil, err
	}
	return applied, nil
}

// Downgrade reverts migrations and returns the names reverted. With names,
// each named migration and every applied migration depending on it is
// reverted, dependents first. Without names, the last applied migration
// in graph order is reverted.
func (r *Runner) Downgrade(ctx context.Context, names ...string) ([]string, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	scope, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Rollback()

	applied, err := r.recorder.Applied(ctx, scope.Execer())
	if err != nil {
		return nil, err
	}
	targets, err := downgradeTargets(g, applied, names)
	if err != nil {
		return nil, err
	}
	for _, name := range targets {
		m, _ := g.Get(name)
		if err := r.checkHooks(m.DowngradeExtras); err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}

	for _, name := range targets {
		m, _ := g.Get(name)
		err := scope.Nested(ctx, func(ex db.Execer) error {
			if err := r.run(ctx, ex, m.Name, m.Downgrade, m.DowngradeExtras); err != nil {
				return err
			}
			return r.recorder.UnmarkApplied(ctx, ex, m.Name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to downgrade migration %s: %w", m.Name, err)
		}
		r.log.Info().Str("migration", m.Name).Msg("downgraded migration")
	}

	if err := scope.Commit(); err != nil {
		return nil, err
	}
	return targets, nil
}

func downgradeTargets(g *migration.Graph, applied map[string]time.Time, names []string) ([]string, error) {
	if len(names) == 0 {
		order := g.Names()
		for i := len(order) - 1; i >= 0; i-- {
			if _, ok := applied[order[i]]; ok {
				return []string{order[i]}, nil
			}
		}
		return nil, nil
	}

	for _, name := range names {
		if _, err := g.Get(name); err != nil {
			return nil, err
		}
		if _, ok := applied[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotApplied, name)
		}
	}
	all, err := g.Dependents(names...)
	if err != nil {
		return nil, err
	}
	var targets []string
	for _, name := range all {
		if _, ok := applied[name]; ok {
			targets = append(targets, name)
		}
	}
	return targets, nil
}

// run executes one migration's steps then its extras on ex
func (r *Runner) run(ctx context.Context, ex db.Execer, name string, steps []change.Change, extras []migration.Extra) error {
	stmts, err := change.SQL(r.client.Dialect(), steps)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		r.log.Debug().Str("migration", name).Str("sql", stmt).Msg("exec")
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	for _, e := range extras {
		r.log.Debug().Str("migration", name).Str("extra", e.String()).Msg("exec")
		if err := r.runExtra(ctx, ex, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runExtra(ctx context.Context, ex db.Execer, e migration.Extra) error {
	if e.Hook != "" {
		hook, ok := r.hooks[e.Hook]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHook, e.Hook)
		}
		if err := hook(ctx, ex); err != nil {
			return fmt.Errorf("hook %s: %w", e.Hook, err)
		}
		return nil
	}
	if _, err := ex.ExecContext(ctx, e.SQL); err != nil {
		return fmt.Errorf("%s: %w", e.SQL, err)
	}
	return nil
}

func (r *Runner) checkHooks(extras []migration.Extra) error {
	for _, e := range extras {
		if e.Hook == "" {
			continue
		}
		if _, ok := r.hooks[e.Hook]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHook, e.Hook)
		}
	}
	return nil
}

// Dialect returns the connected database's dialect, or nil without one
func (r *Runner) Dialect() dialect.Dialect {
	if r.client == nil {
		return nil
	}
	return r.client.Dialect()
}
