package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kutbudev/crud-docs/pkg/models"
)

func newMockRepository(t *testing.T) (*DatabaseRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewDatabaseRepository(db), mock
}

func TestDatabaseRepositoryFindTagNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

	_, err := repo.FindTag(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryCreateTag(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	tag := &models.Tag{Name: "GET"}
	require.NoError(t, repo.CreateTag(context.Background(), tag))
	assert.Equal(t, uint(3), tag.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryDeleteMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "crud_tags"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "cruds"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryCreateStoresTagPositions(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tags" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO "cruds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(`INSERT INTO "crud_tags" \("crud_id","position","tag_id"\)`).
		WithArgs(10, 0, 5, 10, 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	crud := &models.Crud{Title: "Sample Model", Body: "http://www.baeldung.com/", TagIDs: []uint{5, 2}}
	require.NoError(t, repo.Create(context.Background(), crud))
	assert.Equal(t, uint(10), crud.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryCreateRejectsDanglingTags(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tags" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Crud{Title: "t", Body: "b", TagIDs: []uint{1, 42}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryFindRestoresTagOrder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "cruds" WHERE "cruds"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body"}).AddRow(10, "Sample Model", "b"))
	mock.ExpectQuery(`SELECT \* FROM "crud_tags" WHERE crud_id = \$1 ORDER BY position`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"crud_id", "position", "tag_id"}).
			AddRow(10, 0, 5).
			AddRow(10, 1, 2).
			AddRow(10, 2, 9))

	crud, err := repo.Find(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Sample Model", crud.Title)
	assert.Equal(t, []uint{5, 2, 9}, crud.TagIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryFindMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "cruds"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body"}))

	_, err := repo.Find(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryListGroupsTagsByCrud(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "cruds" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body"}).
			AddRow(1, "first", "a").
			AddRow(2, "second", "b").
			AddRow(3, "third", "c"))
	mock.ExpectQuery(`SELECT \* FROM "crud_tags" ORDER BY crud_id,\s*position`).
		WillReturnRows(sqlmock.NewRows([]string{"crud_id", "position", "tag_id"}).
			AddRow(1, 0, 3).
			AddRow(1, 1, 1).
			AddRow(2, 0, 2))

	cruds, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cruds, 3)
	assert.Equal(t, []uint{3, 1}, cruds[0].TagIDs)
	assert.Equal(t, []uint{2}, cruds[1].TagIDs)
	assert.Empty(t, cruds[2].TagIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositorySaveReplacesTagRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tags" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`UPDATE "cruds" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "crud_tags" WHERE crud_id = \$1`).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO "crud_tags"`).
		WithArgs(10, 0, 4, 10, 1, 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	crud := &models.Crud{ID: 10, Title: "t", Body: "b", TagIDs: []uint{4, 1}}
	require.NoError(t, repo.Save(context.Background(), crud))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositorySaveErrors(t *testing.T) {
	tests := []struct {
		name   string
		crud   *models.Crud
		expect func(mock sqlmock.Sqlmock)
	}{
		{
			name: "dangling tag",
			crud: &models.Crud{ID: 10, Title: "t", Body: "b", TagIDs: []uint{7}},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT count\(\*\) FROM "tags" WHERE id IN`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
		},
		{
			name: "missing crud",
			crud: &models.Crud{ID: 10, Title: "t", Body: "b"},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "cruds" SET`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectRollback()

			err := repo.Save(context.Background(), tt.crud)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDatabaseRepositoryAttachTag(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cruds" SET "updated_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\) \+ 1, 0\) FROM "crud_tags" WHERE crud_id = \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO "crud_tags"`).
		WithArgs(10, 2, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tag := &models.Tag{Name: "PATCH"}
	require.NoError(t, repo.AttachTag(context.Background(), 10, tag))
	assert.Equal(t, uint(4), tag.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepositoryAttachTagRollsBack(t *testing.T) {
	t.Run("missing crud", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "cruds" SET "updated_at"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.AttachTag(context.Background(), 10, &models.Tag{Name: "orphan"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "no tag insert may run")
	})

	t.Run("join row fails", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		connReset := errors.New("connection reset")

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "cruds" SET "updated_at"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO "tags"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
		mock.ExpectQuery(`SELECT COALESCE`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "crud_tags"`).
			WillReturnError(connReset)
		mock.ExpectRollback()

		err := repo.AttachTag(context.Background(), 10, &models.Tag{Name: "PATCH"})
		assert.ErrorIs(t, err, connReset)
		assert.NoError(t, mock.ExpectationsWereMet(), "the tag insert is rolled back with the join row")
	})
}
