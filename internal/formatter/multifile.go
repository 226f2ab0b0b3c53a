package formatter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tordrt/schemashift/internal/runner"
)

// MultiFileFormatter writes each migration script to its own file,
// <name>.up.sql or <name>.down.sql, plus an overview of the run order
type MultiFileFormatter struct {
	OutputDir string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir}
}

// Format writes the scripts and returns the files written
func (f *MultiFileFormatter) Format(scripts []runner.Script) ([]string, error) {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, s := range scripts {
		path := filepath.Join(f.OutputDir, fmt.Sprintf("%s.%s.sql", s.Name, s.Direction))
		if err := writeFile(path, func(file *os.File) error {
			return NewSQLFormatter(file).formatScript(s)
		}); err != nil {
			return nil, fmt.Errorf("failed to write script for %s: %w", s.Name, err)
		}
		written = append(written, path)
	}

	overview := filepath.Join(f.OutputDir, "_overview.txt")
	if err := writeFile(overview, func(file *os.File) error {
		return f.writeOverview(file, scripts)
	}); err != nil {
		return nil, fmt.Errorf("failed to write overview: %w", err)
	}
	return append(written, overview), nil
}

func (f *MultiFileFormatter) writeOverview(file *os.File, scripts []runner.Script) error {
	_, _ = fmt.Fprintf(file, "MIGRATION SCRIPTS\n")
	_, _ = fmt.Fprintf(file, "Run in this order; each has a file <name>.<up|down>.sql\n\n")
	for i, s := range scripts {
		_, _ = fmt.Fprintf(file, "%d. %s (%s, %d statements)\n", i+1, s.Name, s.Direction, len(s.Statements))
	}
	return nil
}

func writeFile(path string, fn func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
