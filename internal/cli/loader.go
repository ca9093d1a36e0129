package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/fieldmap"
	"github.com/roach88/twinq/internal/request"
)

// Resolver maps entities to tables, primary keys and index fields.
type Resolver interface {
	Table(entity string) (string, error)
	PrimaryKey(entity string) (string, error)
	IndexField(entity, field string) (string, error)
}

// conventions resolves any entity without a registry: the table is the
// plural of the lower-cased entity name, the key is "id", and index fields
// keep their domain names.
type conventions struct{}

func (conventions) Table(entity string) (string, error) {
	return inflection.Plural(strings.ToLower(entity)), nil
}

func (conventions) PrimaryKey(string) (string, error) {
	return fieldmap.DefaultPrimaryKey, nil
}

func (conventions) IndexField(_, field string) (string, error) {
	return field, nil
}

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadResolver loads the registry at path, falling back to naming
// conventions when path is empty.
func loadResolver(path string) (Resolver, error) {
	if path == "" {
		return conventions{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry not found: %s", path), Err: err}
	}
	reg, err := fieldmap.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRegistry, Message: "invalid registry", Err: err}
	}
	return reg, nil
}

// loadRequest reads a request file.
func loadRequest(path string) (*request.Request, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("request not found: %s", path), Err: err}
	}
	req, err := request.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRequest, Message: "invalid request", Err: err}
	}
	return req, nil
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeRequest     = "E002" // Request file could not be decoded
	ErrCodeRegistry    = "E003" // Registry file could not be decoded
	ErrCodeConfig      = "E004" // Config or flag error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeConnect     = "E006" // Backend unreachable
	ErrCodeWriteFailed = "E007" // File write error

	// Query errors
	ErrCodeInvalidArgument = "E101" // Malformed filter or query
	ErrCodeUnsupported     = "E102" // Filter has no form on the backend
	ErrCodeUnknownEntity   = "E103" // Entity or field not registered
	ErrCodeExecution       = "E110" // Backend rejected the query
)

// errorCode maps an error to its CLI error code.
func errorCode(err error) string {
	var loadErr *LoadError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case criteria.IsInvalidArgument(err):
		return ErrCodeInvalidArgument
	case criteria.IsUnsupported(err):
		return ErrCodeUnsupported
	case fieldmap.IsNotFound(err):
		return ErrCodeUnknownEntity
	default:
		return ErrCodeGeneric
	}
}

// exitCode maps an error to a process exit code: input files that cannot be
// read are command errors, everything else is a request failure.
func exitCode(err error) int {
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Code == ErrCodeNotFound {
		return ExitCommandError
	}
	return ExitFailure
}
