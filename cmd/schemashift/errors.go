package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/dialect"
	"github.com/tordrt/schemashift/internal/migration"
	"github.com/tordrt/schemashift/internal/model"
	"github.com/tordrt/schemashift/internal/runner"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitConfig      = 2
	ExitSchemaParse = 3
	ExitDBConnect   = 4
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	os.Exit(reportError(os.Stderr, err))
}

func reportError(w io.Writer, err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(w, "Error:", exitErr.Error())
		return exitErr.Code
	}
	fmt.Fprintln(w, "Error:", err)
	return ExitGeneral
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// SchemaParseError creates an ExitError with ExitSchemaParse code.
func SchemaParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitSchemaParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// classify picks the exit code for an error returned by an engine operation
func classify(msg string, err error) *ExitError {
	switch {
	case errors.Is(err, runner.ErrNoDatabase),
		errors.Is(err, runner.ErrNoModel),
		errors.Is(err, dialect.ErrUnknownDialect):
		return ConfigError(msg, err)
	case errors.Is(err, model.ErrInvalid),
		errors.Is(err, migration.ErrCycle),
		errors.Is(err, migration.ErrUnknownDependency),
		errors.Is(err, migration.ErrDuplicateName),
		errors.Is(err, migration.ErrInvalidName),
		errors.Is(err, migration.ErrInvalidExtra),
		errors.Is(err, change.ErrUnknownKind),
		errors.Is(err, change.ErrInvalid):
		return SchemaParseError(msg, err)
	}
	return GeneralError(msg, err)
}
