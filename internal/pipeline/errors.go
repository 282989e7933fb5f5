package pipeline

import (
	"context"
	"errors"

	"github.com/KaramelBytes/churnviz-cli/internal/analysis"
	"github.com/KaramelBytes/churnviz-cli/internal/dataset"
	"github.com/KaramelBytes/churnviz-cli/internal/render"
)

// ErrorKind classifies a failure for users and the manifest.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "NotFound"
	KindSchemaMismatch ErrorKind = "SchemaMismatch"
	KindEmptyGroup     ErrorKind = "EmptyGroup"
	KindWriteFailure   ErrorKind = "WriteFailure"
	KindCancelled      ErrorKind = "Cancelled"
	KindInternal       ErrorKind = "Internal"
)

// Kind maps err onto an ErrorKind. A nil error has no kind.
func Kind(err error) ErrorKind {
	var flagErr *dataset.ChurnFlagError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, dataset.ErrNotFound):
		return KindNotFound
	case errors.Is(err, dataset.ErrSchemaMismatch), errors.Is(err, dataset.ErrNoHeader),
		errors.Is(err, dataset.ErrUnsupported), errors.As(err, &flagErr):
		return KindSchemaMismatch
	case errors.Is(err, analysis.ErrEmptyGroup), errors.Is(err, dataset.ErrEmptyTable):
		return KindEmptyGroup
	case errors.Is(err, render.ErrWriteFailure):
		return KindWriteFailure
	}
	return KindInternal
}
