package repository

import (
	"context"
	"errors"

	"github.com/kutbudev/crud-docs/pkg/models"
)

// ErrNotFound is returned when a crud or tag id does not exist
var ErrNotFound = errors.New("record not found")

// Repository stores Crud and Tag entities. Implementations must be safe for
// concurrent use and must assign a distinct id to every created entity.
type Repository interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	FindTag(ctx context.Context, id uint) (*models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)

	Create(ctx context.Context, crud *models.Crud) error
	Find(ctx context.Context, id uint) (*models.Crud, error)
	List(ctx context.Context) ([]models.Crud, error)
	Save(ctx context.Context, crud *models.Crud) error
	Delete(ctx context.Context, id uint) error

	// AttachTag stores tag and appends it to the crud's tags as one change.
	// Nothing is stored when the crud does not exist or the append fails.
	AttachTag(ctx context.Context, crudID uint, tag *models.Tag) error
}

// HealthChecker is implemented by repositories backed by an external store
type HealthChecker interface {
	Health(ctx context.Context) error
}
