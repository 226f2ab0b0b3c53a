package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store persists migration records
type Store interface {
	Load() ([]*Migration, error)
	Save(m *Migration) error
}

// Dir stores one <name>.yaml document per migration in a directory
type Dir struct {
	Path string
}

// NewDir creates a directory-backed store
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// File returns the document path for a migration name
func (d *Dir) File(name string) string {
	return filepath.Join(d.Path, name+".yaml")
}

// Load reads every .yaml/.yml document in the directory. A missing
// directory is an empty history.
func (d *Dir) Load() ([]*Migration, error) {
	entries, err := os.ReadDir(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	migrations := make([]*Migration, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(filepath.Join(d.Path, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		m, err := Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if stem := strings.TrimSuffix(file, filepath.Ext(file)); stem != m.Name {
			return nil, fmt.Errorf("%s: migration is named %q, expected %q", file, m.Name, stem)
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}

// Save writes a new migration document; existing files are never
// overwritten. The document is written to a temporary file and linked into
// place, so a failed write leaves nothing behind.
func (d *Dir) Save(m *Migration) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.Path, "."+m.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create migration file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write migration file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	err = os.Link(tmp.Name(), d.File(m.Name))
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, m.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration file: %w", err)
	}
	return nil
}
