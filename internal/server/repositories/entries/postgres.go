// Package entries provides the PostgreSQL repository for key_value_entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

const selectEntry = `
	SELECT e.id, e.key, e.value_id, e.type, e.filename, e.user_id, e.collection_id,
	       e.metadata, e.origin, e.created_at, e.updated_at,
	       v.hash, v.size, v.is_multipart
	FROM key_value_entries e
	JOIN value_entries v ON v.id = e.value_id
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	e := &models.Entry{}
	err := s.Scan(&e.ID, &e.Key, &e.ValueID, &e.Type, &e.Filename, &e.UserID, &e.CollectionID,
		&e.Metadata, &e.Origin, &e.CreatedAt, &e.UpdatedAt,
		&e.Secret, &e.Size, &e.IsMultipart)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func translate(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return common.ErrorAlreadyExists
	case dbx.IsForeignKeyViolation(err):
		return common.ErrorNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

// Create inserts e. A key already taken in its scope yields
// common.ErrorAlreadyExists, a missing value, user or collection
// common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO key_value_entries (key, value_id, type, filename, user_id, collection_id, metadata, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Key, e.ValueID, e.Type, e.Filename, e.UserID, e.CollectionID, e.Metadata, e.Origin).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, selectEntry+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Entry) error {
	query := `
		UPDATE key_value_entries
		SET key = $1, value_id = $2, type = $3, filename = $4, collection_id = $5,
		    metadata = $6, origin = $7, updated_at = NOW()
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		e.Key, e.ValueID, e.Type, e.Filename, e.CollectionID, e.Metadata, e.Origin, e.ID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM key_value_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, collectionID *int64, f models.EntryFilter) ([]*models.Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if collectionID == nil {
		where = append(where, "e.user_id = "+arg(userID), "e.collection_id IS NULL")
	} else {
		where = append(where, "e.collection_id = "+arg(*collectionID))
	}
	if f.Prefix != "" {
		where = append(where, `e.key LIKE `+arg(escapeLike(f.Prefix)+"%")+` ESCAPE '\'`)
	}
	if f.Contains != "" {
		where = append(where, `e.key LIKE `+arg("%"+escapeLike(f.Contains)+"%")+` ESCAPE '\'`)
	}

	query := selectEntry + " WHERE " + strings.Join(where, " AND ") + " ORDER BY e.key, e.id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByKeyAndHash returns the oldest entry with the given key whose value
// hash equals hash.
func (r *PostgresRepository) FindByKeyAndHash(ctx context.Context, key, hash string) (*models.Entry, error) {
	query := selectEntry + ` WHERE e.key = $1 AND v.hash = $2 ORDER BY e.created_at, e.id LIMIT 1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, key, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
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
