// Package migration holds migration records, their on-disk YAML form, the
// dependency graph over them and the protoschema replay.
package migration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tordrt/schemashift/internal/change"
)

var (
	ErrDuplicateName     = errors.New("duplicate migration name")
	ErrUnknownDependency = errors.New("unknown migration dependency")
	ErrCycle             = errors.New("migration dependency cycle")
	ErrNotFound          = errors.New("migration not found")
	ErrInvalidName       = errors.New("invalid migration name")
	ErrInvalidExtra      = errors.New("invalid migration extra")
)

// NameLayout is the timestamp prefix of generated migration names
const NameLayout = "20060102150405"

// DefaultLabel is appended to generated names when none is given
const DefaultLabel = "auto"

// Migration is a named, reversible set of changes. Applied state is not
// part of the record; it lives in the database recorder.
type Migration struct {
	Name            string
	Dependencies    []string
	Upgrade         []change.Change
	Downgrade       []change.Change
	UpgradeExtras   []Extra
	DowngradeExtras []Extra
}

// Extra is a side effect run after a migration's steps: either a raw SQL
// statement or the name of a hook registered by the embedding program.
type Extra struct {
	SQL  string `yaml:"sql,omitempty"`
	Hook string `yaml:"hook,omitempty"`
}

func (e Extra) validate() error {
	if (e.SQL == "") == (e.Hook == "") {
		return fmt.Errorf("%w: exactly one of sql or hook must be set", ErrInvalidExtra)
	}
	return nil
}

func (e Extra) String() string {
	if e.Hook != "" {
		return "hook " + e.Hook
	}
	return "sql " + e.SQL
}

// NewName builds a sortable migration name from a UTC timestamp and label
func NewName(now time.Time, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultLabel
	}
	label = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, label)
	return now.UTC().Format(NameLayout) + "_" + label
}

// ValidateName rejects names that cannot be used as a file name
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Validate checks the record is well formed on its own
func (m *Migration) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}
	seen := make(map[string]bool, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if dep == m.Name {
			return fmt.Errorf("%w: %s depends on itself", ErrCycle, m.Name)
		}
		if seen[dep] {
			return fmt.Errorf("%s: dependency %s listed twice", m.Name, dep)
		}
		seen[dep] = true
	}
	for _, extras := range [][]Extra{m.UpgradeExtras, m.DowngradeExtras} {
		for _, e := range extras {
			if err := e.validate(); err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
		}
	}
	return nil
}
