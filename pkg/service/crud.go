package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kutbudev/crud-docs/pkg/models"
	"github.com/kutbudev/crud-docs/pkg/repository"
)

// CreateInput carries the fields of a new crud
type CreateInput struct {
	Title  string
	Body   string
	TagIDs []uint
}

// PatchInput carries a partial field set. Nil fields are left untouched.
type PatchInput struct {
	Title  *string
	Body   *string
	TagIDs *[]uint
}

// PutInput carries a complete field set. A nil TagIDs clears the tags.
type PutInput struct {
	Title  string
	Body   string
	TagIDs []uint
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Title  string
	Body   string
	TagIDs []uint
}

// Service implements the crud lifecycle on top of a Repository.
type Service struct {
	repo      repository.Repository
	locks     *keyedMutex
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithListener registers a mutation listener
func WithListener(l Listener) Option {
	return func(s *Service) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service that owns repo
func NewService(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locks:  newKeyedMutex(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the underlying store, mainly for health checks
func (s *Service) Repository() repository.Repository {
	return s.repo
}

// CreateTag stores a new tag
func (s *Service) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}

	tag := &models.Tag{Name: name}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.logger.Info("tag created", "id", tag.ID, "name", tag.Name)
	s.emit(ctx, EventTagCreated, tag.ID)
	return tag, nil
}

// GetTag returns a tag by id
func (s *Service) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	return s.repo.FindTag(ctx, id)
}

// ListTags returns every tag ordered by id
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.repo.ListTags(ctx)
}

// Create stores a new crud after validating its fields and tag references
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Crud, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}
	if err := requireText("body", in.Body); err != nil {
		return nil, err
	}
	if err := s.resolveTags(ctx, in.TagIDs); err != nil {
		return nil, err
	}

	crud := &models.Crud{
		Title:  in.Title,
		Body:   in.Body,
		TagIDs: copyIDs(in.TagIDs),
	}
	if err := s.repo.Create(ctx, crud); err != nil {
		return nil, err
	}

	s.logger.Info("crud created", "id", crud.ID)
	s.emit(ctx, EventCrudCreated, crud.ID)
	return crud, nil
}

// Get returns a crud by id
func (s *Service) Get(ctx context.Context, id uint) (*models.Crud, error) {
	return s.repo.Find(ctx, id)
}

// List returns every crud matching the filter, ordered by id
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Crud, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Crud, 0, len(all))
	for _, crud := range all {
		if filter.matches(&crud) {
			out = append(out, crud)
		}
	}
	return out, nil
}

// PartialUpdate changes only the supplied fields
func (s *Service) PartialUpdate(ctx context.Context, id uint, in PatchInput) (*models.Crud, error) {
	if in.Title != nil {
		if err := requireText("title", *in.Title); err != nil {
			return nil, err
		}
	}
	if in.Body != nil {
		if err := requireText("body", *in.Body); err != nil {
			return nil, err
		}
	}
	if in.TagIDs != nil {
		if err := s.resolveTags(ctx, *in.TagIDs); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	crud, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		crud.Title = *in.Title
	}
	if in.Body != nil {
		crud.Body = *in.Body
	}
	if in.TagIDs != nil {
		crud.TagIDs = copyIDs(*in.TagIDs)
	}

	if err := s.repo.Save(ctx, crud); err != nil {
		return nil, err
	}

	s.logger.Info("crud updated", "id", id)
	s.emit(ctx, EventCrudUpdated, id)
	return crud, nil
}

// FullUpdate replaces every mutable field. Omitted tags clear the tag list.
func (s *Service) FullUpdate(ctx context.Context, id uint, in PutInput) (*models.Crud, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}
	if err := requireText("body", in.Body); err != nil {
		return nil, err
	}
	if err := s.resolveTags(ctx, in.TagIDs); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	crud, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	crud.Title = in.Title
	crud.Body = in.Body
	crud.TagIDs = copyIDs(in.TagIDs)

	if err := s.repo.Save(ctx, crud); err != nil {
		return nil, err
	}

	s.logger.Info("crud replaced", "id", id)
	s.emit(ctx, EventCrudReplaced, id)
	return crud, nil
}

// AttachNewTag creates a tag and appends it to the crud's tags in one
// repository change. The tag is only created when the crud exists.
func (s *Service) AttachNewTag(ctx context.Context, id uint, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	tag := &models.Tag{Name: name}
	if err := s.repo.AttachTag(ctx, id, tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag attached", "crud_id", id, "tag_id", tag.ID, "name", tag.Name)
	s.emit(ctx, EventTagCreated, tag.ID)
	s.emit(ctx, EventCrudUpdated, id)
	return tag, nil
}

// Delete removes a crud. Its tags are kept.
func (s *Service) Delete(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("crud deleted", "id", id)
	s.emit(ctx, EventCrudDeleted, id)
	return nil
}

func (s *Service) resolveTags(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		if _, err := s.repo.FindTag(ctx, id); err != nil {
			return fmt.Errorf("tag %d: %w", id, err)
		}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, typ EventType, id uint) {
	if len(s.listeners) == 0 {
		return
	}
	event := Event{Type: typ, ID: id, OccurredAt: s.now().UTC()}
	for _, l := range s.listeners {
		l.OnEvent(ctx, event)
	}
}

func (f Filter) matches(crud *models.Crud) bool {
	if f.Title != "" && f.Title != crud.Title {
		return false
	}
	if f.Body != "" && f.Body != crud.Body {
		return false
	}
	for _, want := range f.TagIDs {
		if !containsID(crud.TagIDs, want) {
			return false
		}
	}
	return true
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationError("%s is required", field)
	}
	return nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func copyIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	return append([]uint(nil), ids...)
}
