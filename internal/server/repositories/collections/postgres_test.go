package collections

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

var cols = []string{"id", "name", "description", "user_id", "secret", "metadata", "origin", "created_at", "updated_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT INTO key_value_collections .*RETURNING id, created_at, updated_at`).
		WithArgs("docs", "my docs", int64(1), "s3cr3t", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))

	c, err := repo.Create(context.Background(), &models.Collection{Name: "docs", Description: "my docs", UserID: 1, Secret: "s3cr3t"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.ID)
	assert.Equal(t, now, c.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO key_value_collections`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Collection{Name: "docs", UserID: 1, Secret: "dup"})
	assert.True(t, errors.Is(err, common.ErrorAlreadyExists))
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	meta := "{}"
	mock.ExpectQuery(`FROM key_value_collections c WHERE c.id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), "n", "d", int64(1), "sec", meta, nil, now, now))

	c, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, c.Metadata)
	assert.Equal(t, "{}", *c.Metadata)
	assert.Nil(t, c.Origin)
}

func TestGetBySecret_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE c.secret = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySecret(context.Background(), "missing")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE key_value_collections\s+SET name = \$1, description = \$2, metadata = \$3, origin = \$4`).
		WithArgs("n2", "d2", nil, nil, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE key_value_collections`).
		WithArgs("n2", "d2", nil, nil, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), &models.Collection{ID: 3, Name: "n2", Description: "d2"}))
	err := repo.Update(context.Background(), &models.Collection{ID: 4, Name: "n2", Description: "d2"})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestUpdateSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE key_value_collections SET secret = \$1`).
		WithArgs("new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSecret(context.Background(), 3, "new"))
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM key_value_collections WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("db down"))

	err := repo.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestListAccessible(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)LEFT JOIN storage_access a ON a.collection_id = c.id AND a.user_id = \$1.*WHERE c.user_id = \$1 OR a.id IS NOT NULL`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(5), "shared", "", int64(1), "s1", nil, nil, now, now).
			AddRow(int64(4), "mine", "", int64(2), "s2", nil, nil, now, now))

	got, err := repo.ListAccessible(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "shared", got[0].Name)
}

func TestListAll_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM key_value_collections c ORDER BY`).WillReturnError(errors.New("db err"))

	_, err := repo.ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select collections")
}
