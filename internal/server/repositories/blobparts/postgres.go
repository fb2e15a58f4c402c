// Package blobparts provides the PostgreSQL repository for blob_parts, the
// ordered chunks of multipart values.
package blobparts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one part. Exactly one of p.Data and p.StorageKey is stored.
func (r *PostgresRepository) Create(ctx context.Context, p *models.BlobPart) error {
	query := `
		INSERT INTO blob_parts (value_id, part_index, size, data, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var data any
	if p.StorageKey == nil {
		data = p.Data
	}
	if err := r.db.QueryRowContext(ctx, query, p.ValueID, p.PartIndex, p.Size, data, p.StorageKey).Scan(&p.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByValue deliberately leaves data out so a reader can fetch parts one
// at a time.
func (r *PostgresRepository) ListByValue(ctx context.Context, valueID int64) ([]*models.BlobPart, error) {
	query := `
		SELECT id, value_id, part_index, size, storage_key
		FROM blob_parts
		WHERE value_id = $1
		ORDER BY part_index
	`
	rows, err := r.db.QueryContext(ctx, query, valueID)
	if err != nil {
		return nil, fmt.Errorf("failed to select blob parts: %w", err)
	}
	defer rows.Close()

	var result []*models.BlobPart
	for rows.Next() {
		p := &models.BlobPart{}
		if err := rows.Scan(&p.ID, &p.ValueID, &p.PartIndex, &p.Size, &p.StorageKey); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetData(ctx context.Context, partID int64) ([]byte, error) {
	var data []byte
	if err := r.db.QueryRowContext(ctx, `SELECT data FROM blob_parts WHERE id = $1`, partID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return data, nil
}

func (r *PostgresRepository) Count(ctx context.Context, valueID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blob_parts WHERE value_id = $1`, valueID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
