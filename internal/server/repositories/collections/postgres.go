// Package collections provides the PostgreSQL repository for
// key_value_collections.
package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

const collectionColumns = `c.id, c.name, c.description, c.user_id, c.secret, c.metadata, c.origin, c.created_at, c.updated_at`

// PostgresRepository implements collection storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(s scanner) (*models.Collection, error) {
	c := &models.Collection{}
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.UserID, &c.Secret, &c.Metadata, &c.Origin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts c and fills in its id and timestamps. A duplicate secret
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	query := `
		INSERT INTO key_value_collections (name, description, user_id, secret, metadata, origin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Description, c.UserID, c.Secret, c.Metadata, c.Origin).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM key_value_collections c WHERE c.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetBySecret(ctx context.Context, secret string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM key_value_collections c WHERE c.secret = $1`
	return r.getOne(ctx, query, secret)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Collection, error) {
	c, err := scanCollection(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Update writes the descriptive fields of c. Owner and secret are not touched.
func (r *PostgresRepository) Update(ctx context.Context, c *models.Collection) error {
	query := `
		UPDATE key_value_collections
		SET name = $1, description = $2, metadata = $3, origin = $4, updated_at = NOW()
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Description, c.Metadata, c.Origin, c.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) UpdateSecret(ctx context.Context, id int64, secret string) error {
	query := `UPDATE key_value_collections SET secret = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, secret, id)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes the collection. Its entries and grants cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM key_value_collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// ListAccessible returns collections owned by userID or granted to it,
// newest first.
func (r *PostgresRepository) ListAccessible(ctx context.Context, userID int64) ([]*models.Collection, error) {
	query := `
		SELECT ` + collectionColumns + `
		FROM key_value_collections c
		LEFT JOIN storage_access a ON a.collection_id = c.id AND a.user_id = $1
		WHERE c.user_id = $1 OR a.id IS NOT NULL
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.list(ctx, query, userID)
}

// ListAll returns every collection, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM key_value_collections c ORDER BY c.created_at DESC, c.id DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select collections: %w", err)
	}
	defer rows.Close()

	var result []*models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
