package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemashift/internal/runner"
)

// SQLFormatter writes migration scripts as a runnable SQL file
type SQLFormatter struct {
	writer io.Writer
}

// NewSQLFormatter creates a new SQL formatter
func NewSQLFormatter(w io.Writer) *SQLFormatter {
	return &SQLFormatter{writer: w}
}

// Format writes every script, each under a header comment
func (f *SQLFormatter) Format(scripts []runner.Script) error {
	for i, s := range scripts {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		if err := f.formatScript(s); err != nil {
			return err
		}
	}
	return nil
}

func (f *SQLFormatter) formatScript(s runner.Script) error {
	if _, err := fmt.Fprintf(f.writer, "-- %s (%s)\n", s.Name, s.Direction); err != nil {
		return err
	}
	for _, stmt := range s.Statements {
		if strings.HasPrefix(stmt, "--") {
			_, _ = fmt.Fprintln(f.writer, stmt)
			continue
		}
		_, _ = fmt.Fprintf(f.writer, "%s;\n", strings.TrimRight(stmt, "; \n"))
	}
	return nil
}
