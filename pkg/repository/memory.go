package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kutbudev/crud-docs/pkg/models"
)

// MemoryRepository keeps entities in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	cruds    map[uint]*models.Crud
	tags     map[uint]*models.Tag
	lastCrud uint
	lastTag  uint
	now      func() time.Time
}

// NewMemoryRepository returns an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		cruds: make(map[uint]*models.Crud),
		tags:  make(map[uint]*models.Tag),
		now:   time.Now,
	}
}

func (r *MemoryRepository) CreateTag(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastTag++
	tag.ID = r.lastTag
	tag.CreatedAt = r.now()
	stored := *tag
	r.tags[tag.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindTag(_ context.Context, id uint) (*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tag, ok := r.tags[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *tag
	return &out, nil
}

func (r *MemoryRepository) ListTags(_ context.Context) ([]models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]models.Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		tags = append(tags, *tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (r *MemoryRepository) Create(_ context.Context, crud *models.Crud) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkTagsLocked(crud.TagIDs); err != nil {
		return err
	}

	r.lastCrud++
	now := r.now()
	crud.ID = r.lastCrud
	crud.CreatedAt = now
	crud.UpdatedAt = now
	r.cruds[crud.ID] = crud.Clone()
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id uint) (*models.Crud, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	crud, ok := r.cruds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return crud.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Crud, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cruds := make([]models.Crud, 0, len(r.cruds))
	for _, crud := range r.cruds {
		cruds = append(cruds, *crud.Clone())
	}
	sort.Slice(cruds, func(i, j int) bool { return cruds[i].ID < cruds[j].ID })
	return cruds, nil
}

func (r *MemoryRepository) Save(_ context.Context, crud *models.Crud) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.cruds[crud.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.checkTagsLocked(crud.TagIDs); err != nil {
		return err
	}

	crud.CreatedAt = existing.CreatedAt
	crud.UpdatedAt = r.now()
	r.cruds[crud.ID] = crud.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cruds[id]; !ok {
		return ErrNotFound
	}
	delete(r.cruds, id)
	return nil
}

func (r *MemoryRepository) AttachTag(_ context.Context, crudID uint, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	crud, ok := r.cruds[crudID]
	if !ok {
		return ErrNotFound
	}

	r.lastTag++
	now := r.now()
	tag.ID = r.lastTag
	tag.CreatedAt = now
	stored := *tag
	r.tags[tag.ID] = &stored

	updated := crud.Clone()
	updated.TagIDs = append(updated.TagIDs, tag.ID)
	updated.UpdatedAt = now
	r.cruds[crudID] = updated
	return nil
}

// checkTagsLocked makes the store reject dangling tag references even when a
// caller skipped resolution.
func (r *MemoryRepository) checkTagsLocked(ids []uint) error {
	for _, id := range ids {
		if _, ok := r.tags[id]; !ok {
			return ErrNotFound
		}
	}
	return nil
}
