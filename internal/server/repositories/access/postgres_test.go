package access

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func ptr(v int64) *int64 { return &v }

func TestUpsert_Collection(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT INTO storage_access \(user_id, collection_id, access_level\).*ON CONFLICT \(user_id, collection_id\) WHERE collection_id IS NOT NULL\s+DO UPDATE SET access_level = EXCLUDED.access_level`).
		WithArgs(int64(2), int64(5), "READWRITE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	g, err := repo.Upsert(context.Background(), &models.AccessGrant{UserID: 2, CollectionID: ptr(5), Level: models.AccessReadWrite})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_Entry(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT INTO storage_access \(user_id, entry_id, access_level\).*WHERE entry_id IS NOT NULL`).
		WithArgs(int64(2), int64(9), "READONLY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))

	_, err := repo.Upsert(context.Background(), &models.AccessGrant{UserID: 2, EntryID: ptr(9), Level: models.AccessReadOnly})
	require.NoError(t, err)
}

func TestUpsert_NoTarget(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Upsert(context.Background(), &models.AccessGrant{UserID: 2, Level: models.AccessReadOnly})
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

func TestUpsert_MissingUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO storage_access`).WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Upsert(context.Background(), &models.AccessGrant{UserID: 99, EntryID: ptr(9), Level: models.AccessReadOnly})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM storage_access\s+WHERE user_id = \$1 AND entry_id = \$2`).
		WithArgs(int64(2), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "collection_id", "entry_id", "access_level", "created_at", "updated_at"}).
			AddRow(int64(3), int64(2), nil, int64(9), "ADMIN", now, now))
	mock.ExpectQuery(`WHERE user_id = \$1 AND collection_id = \$2`).
		WithArgs(int64(2), int64(5)).
		WillReturnError(sql.ErrNoRows)

	g, err := repo.Get(context.Background(), 2, models.ResourceEntry, 9)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, g.Level)
	require.NotNil(t, g.EntryID)
	assert.Nil(t, g.CollectionID)

	_, err = repo.Get(context.Background(), 2, models.ResourceCollection, 5)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM storage_access WHERE user_id = \$1 AND collection_id = \$2`).
		WithArgs(int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM storage_access`).
		WithArgs(int64(2), int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 2, models.ResourceCollection, 5))
	assert.True(t, errors.Is(repo.Delete(context.Background(), 2, models.ResourceCollection, 6), common.ErrorNotFound))
}

func TestListForResource(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)JOIN users u ON u.id = a.user_id\s+WHERE a.collection_id = \$1\s+ORDER BY a.created_at DESC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "collection_id", "entry_id", "access_level", "created_at", "updated_at", "email", "display_name"}).
			AddRow(int64(2), int64(3), int64(5), nil, "READONLY", now, now, "b@x.io", "Bee").
			AddRow(int64(1), int64(2), int64(5), nil, "READWRITE", now.Add(-time.Hour), now, "a@x.io", "Ay"))

	list, err := repo.ListForResource(context.Background(), models.ResourceCollection, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b@x.io", list[0].Email)
	assert.Equal(t, models.AccessReadWrite, list[1].Level)
}
