package service

import (
	"errors"
	"fmt"

	"github.com/kutbudev/crud-docs/pkg/repository"
)

var (
	// ErrValidation marks input rejected before any mutation
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing crud or tag
	ErrNotFound = repository.ErrNotFound
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
