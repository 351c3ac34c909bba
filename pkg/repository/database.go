package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kutbudev/crud-docs/pkg/config"
	"github.com/kutbudev/crud-docs/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Database.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tag{},
		&models.Crud{},
		&models.CrudTag{},
	)
}

// DatabaseRepository is a Repository backed by gorm.
type DatabaseRepository struct {
	db *gorm.DB
}

func NewDatabaseRepository(db *gorm.DB) *DatabaseRepository {
	return &DatabaseRepository{db: db}
}

func (r *DatabaseRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *DatabaseRepository) FindTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

func (r *DatabaseRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *DatabaseRepository) Create(ctx context.Context, crud *models.Crud) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTags(tx, crud.TagIDs); err != nil {
			return err
		}
		if err := tx.Create(crud).Error; err != nil {
			return fmt.Errorf("failed to create crud: %w", err)
		}
		return insertCrudTags(tx, crud.ID, crud.TagIDs)
	})
}

func (r *DatabaseRepository) Find(ctx context.Context, id uint) (*models.Crud, error) {
	db := r.db.WithContext(ctx)

	var crud models.Crud
	if err := db.First(&crud, id).Error; err != nil {
		return nil, translate(err)
	}

	var rows []models.CrudTag
	if err := db.Where("crud_id = ?", id).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load crud tags: %w", err)
	}
	crud.TagIDs = tagIDs(rows)
	return &crud, nil
}

func (r *DatabaseRepository) List(ctx context.Context) ([]models.Crud, error) {
	db := r.db.WithContext(ctx)

	var cruds []models.Crud
	if err := db.Order("id").Find(&cruds).Error; err != nil {
		return nil, fmt.Errorf("failed to list cruds: %w", err)
	}

	var rows []models.CrudTag
	if err := db.Order("crud_id").Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load crud tags: %w", err)
	}
	byCrud := make(map[uint][]models.CrudTag)
	for _, row := range rows {
		byCrud[row.CrudID] = append(byCrud[row.CrudID], row)
	}
	for i := range cruds {
		cruds[i].TagIDs = tagIDs(byCrud[cruds[i].ID])
	}
	return cruds, nil
}

func (r *DatabaseRepository) Save(ctx context.Context, crud *models.Crud) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTags(tx, crud.TagIDs); err != nil {
			return err
		}

		res := tx.Model(&models.Crud{}).Where("id = ?", crud.ID).Updates(map[string]interface{}{
			"title":      crud.Title,
			"body":       crud.Body,
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update crud: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("crud_id = ?", crud.ID).Delete(&models.CrudTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear crud tags: %w", err)
		}
		return insertCrudTags(tx, crud.ID, crud.TagIDs)
	})
}

func (r *DatabaseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("crud_id = ?", id).Delete(&models.CrudTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear crud tags: %w", err)
		}
		res := tx.Delete(&models.Crud{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete crud: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AttachTag locks the crud row by touching it, then stores the tag and its
// join row at the next position in the same transaction.
func (r *DatabaseRepository) AttachTag(ctx context.Context, crudID uint, tag *models.Tag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Crud{}).Where("id = ?", crudID).Update("updated_at", time.Now())
		if res.Error != nil {
			return fmt.Errorf("failed to update crud: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Create(tag).Error; err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}

		var next int
		err := tx.Model(&models.CrudTag{}).
			Select("COALESCE(MAX(position) + 1, 0)").
			Where("crud_id = ?", crudID).
			Scan(&next).Error
		if err != nil {
			return fmt.Errorf("failed to load crud tags: %w", err)
		}

		row := models.CrudTag{CrudID: crudID, Position: next, TagID: tag.ID}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to store crud tags: %w", err)
		}
		return nil
	})
}

// Health pings the underlying connection pool
func (r *DatabaseRepository) Health(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func checkTags(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	keys := make([]uint, 0, len(unique))
	for id := range unique {
		keys = append(keys, id)
	}

	var count int64
	if err := tx.Model(&models.Tag{}).Where("id IN ?", keys).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to resolve tags: %w", err)
	}
	if count != int64(len(keys)) {
		return ErrNotFound
	}
	return nil
}

func insertCrudTags(tx *gorm.DB, crudID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.CrudTag, len(ids))
	for i, id := range ids {
		rows[i] = models.CrudTag{CrudID: crudID, Position: i, TagID: id}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to store crud tags: %w", err)
	}
	return nil
}

func tagIDs(rows []models.CrudTag) []uint {
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.TagID)
	}
	return ids
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
