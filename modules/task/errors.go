package task

import (
	"errors"

	"github.com/example/task-manager/pkg/apperror"
)

// ErrNotFound is returned when a task does not exist or belongs to
// another user. Callers cannot tell the two apart.
var ErrNotFound = errors.New("task not found")

var serviceErrors = map[error]apperror.Code{
	ErrNotFound: apperror.CodeNotFound,
}

var adapterErrors = map[apperror.Code]error{
	apperror.CodeNotFound: ErrNotFound,
}
