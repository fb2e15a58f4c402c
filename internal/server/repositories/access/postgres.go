// Package access provides the PostgreSQL repository for storage_access, the
// per-user grants on collections and entries.
package access

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

// targetColumn names the column holding the grant target. Only the two
// constants are ever interpolated into SQL.
func targetColumn(rt models.ResourceType) (string, error) {
	switch rt {
	case models.ResourceCollection:
		return "collection_id", nil
	case models.ResourceEntry:
		return "entry_id", nil
	default:
		return "", fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, rt)
	}
}

func (r *PostgresRepository) Upsert(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error) {
	rt, id := g.Target()
	col, err := targetColumn(rt)
	if err != nil {
		return nil, err
	}

	// The conflict target repeats the partial index predicate so PostgreSQL
	// can infer the matching unique index.
	query := fmt.Sprintf(`
		INSERT INTO storage_access (user_id, %[1]s, access_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, %[1]s) WHERE %[1]s IS NOT NULL
		DO UPDATE SET access_level = EXCLUDED.access_level, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, col)

	err = r.db.QueryRowContext(ctx, query, g.UserID, id, g.Level).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) (*models.AccessGrant, error) {
	col, err := targetColumn(rt)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, collection_id, entry_id, access_level, created_at, updated_at
		FROM storage_access
		WHERE user_id = $1 AND %s = $2
	`, col)

	g := &models.AccessGrant{}
	err = r.db.QueryRowContext(ctx, query, userID, resourceID).
		Scan(&g.ID, &g.UserID, &g.CollectionID, &g.EntryID, &g.Level, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) error {
	col, err := targetColumn(rt)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM storage_access WHERE user_id = $1 AND %s = $2`, col)

	res, err := r.db.ExecContext(ctx, query, userID, resourceID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListForResource returns grants newest first, with grantee email and
// display name.
func (r *PostgresRepository) ListForResource(ctx context.Context, rt models.ResourceType, resourceID int64) ([]*models.AccessGrant, error) {
	col, err := targetColumn(rt)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.collection_id, a.entry_id, a.access_level, a.created_at, a.updated_at,
		       u.email, u.display_name
		FROM storage_access a
		JOIN users u ON u.id = a.user_id
		WHERE a.%s = $1
		ORDER BY a.created_at DESC, a.id DESC
	`, col)

	rows, err := r.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessGrant
	for rows.Next() {
		g := &models.AccessGrant{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.CollectionID, &g.EntryID, &g.Level, &g.CreatedAt, &g.UpdatedAt,
			&g.Email, &g.DisplayName); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
