package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the input file does not exist.
	ErrNotFound = errors.New("input file not found")
	// ErrSchemaMismatch indicates required columns are absent.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrNoHeader indicates the input has no header row.
	ErrNoHeader = errors.New("input has no header row")
	// ErrEmptyTable indicates the input has a header but no data rows.
	ErrEmptyTable = errors.New("dataset contains no rows")
	// ErrUnsupported indicates no reader accepts the input format.
	ErrUnsupported = errors.New("unsupported input format")
)

// SchemaError names the expected columns missing from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

// ChurnFlagError is returned in strict mode when churn flags failed validation.
type ChurnFlagError struct {
	Count int
}

func (e *ChurnFlagError) Error() string {
	return fmt.Sprintf("%d churn flag value(s) outside {0,1}", e.Count)
}
