package runner

import (
	"context"
	"time"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/migration"
)

// Status describes one stored migration
type Status struct {
	Name         string     `json:"name"`
	Dependencies []string   `json:"dependencies"`
	Applied      bool       `json:"applied"`
	AppliedAt    *time.Time `json:"applied_at,omitempty"`
}

// Status lists every migration in graph order with its applied state
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, g.Len())
	for _, m := range g.Order() {
		st := Status{Name: m.Name, Dependencies: m.Dependencies}
		if at, ok := applied[m.Name]; ok {
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (r *Runner) applied(ctx context.Context) (map[string]time.Time, error) {
	if r.client == nil {
		return nil, ErrNoDatabase
	}
	if err := r.recorder.Ensure(ctx, r.client.DB()); err != nil {
		return nil, err
	}
	return r.recorder.Applied(ctx, r.client.DB())
}

// Direction selects upgrade or downgrade steps
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Script is the rendered SQL of one migration in one direction
type Script struct {
	Name       string   `json:"name"`
	Direction  string   `json:"direction"`
	Statements []string `json:"statements"`
}

// ScriptOptions selects what Scripts renders
type ScriptOptions struct {
	// Dialect defaults to the connected database's
	Dialect   dialect.Dialect
	Direction Direction
	// All renders every migration instead of only the pending (Up) or
	// applied (Down) ones. It is implied when there is no database.
	All bool
}

// Scripts renders migrations as SQL without executing anything. Up scripts
// come in graph order, down scripts in reverse. Hook extras are rendered as
// comments since they only exist as Go code.
func (r *Runner) Scripts(ctx context.Context, opts ScriptOptions) ([]Script, error) {
	d := opts.Dialect
	if d == nil {
		d = r.Dialect()
	}
	if d == nil {
		return nil, ErrNoDatabase
	}

	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	var applied map[string]time.Time
	if !opts.All && r.client != nil {
		if applied, err = r.applied(ctx); err != nil {
			return nil, err
		}
	}
	all := opts.All || r.client == nil

	order := g.Order()
	if opts.Direction == Down {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	var out []Script
	for _, m := range order {
		_, isApplied := applied[m.Name]
		if !all && isApplied == (opts.Direction == Up) {
			continue
		}
		steps, extras := m.Upgrade, m.UpgradeExtras
		if opts.Direction == Down {
			steps, extras = m.Downgrade, m.DowngradeExtras
		}
		stmts, err := render(d, steps, extras)
		if err != nil {
			return nil, err
		}
		out = append(out, Script{Name: m.Name, Direction: opts.Direction.String(), Statements: stmts})
	}
	return out, nil
}

func render(d dialect.Dialect, steps []change.Change, extras []migration.Extra) ([]string, error) {
	stmts, err := change.SQL(d, steps)
	if err != nil {
		return nil, err
	}
	for _, e := range extras {
		if e.Hook != "" {
			stmts = append(stmts, "-- hook: "+e.Hook)
			continue
		}
		stmts = append(stmts, e.SQL)
	}
	return stmts, nil
}
