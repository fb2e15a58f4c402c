// Package values provides the PostgreSQL repository for value_entries, the
// content-addressed payload table.
package values

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

const valueColumns = `id, hash, kind, string_value, blob_value, type, is_multipart, size, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create relies on the unique hash constraint: a concurrent writer that got
// there first makes the insert a no-op, reported as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, v *models.Value) (*models.Value, error) {
	query := `
		INSERT INTO value_entries (hash, kind, string_value, blob_value, type, is_multipart, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (hash) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		v.Hash, string(v.Kind), v.StringValue, v.BlobValue, v.Type, v.IsMultipart, v.Size).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Value, error) {
	return r.getOne(ctx, `SELECT `+valueColumns+` FROM value_entries WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*models.Value, error) {
	return r.getOne(ctx, `SELECT `+valueColumns+` FROM value_entries WHERE hash = $1`, hash)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Value, error) {
	v := &models.Value{}
	var kind string
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&v.ID, &v.Hash, &kind, &v.StringValue, &v.BlobValue, &v.Type, &v.IsMultipart, &v.Size, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	v.Kind = models.ValueKind(kind)
	return v, nil
}
