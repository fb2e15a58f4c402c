package values

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository stores immutable content-addressed values.
type Repository interface {
	// Create inserts v unless a value with the same hash exists, in which
	// case it returns common.ErrorConflict and leaves the table unchanged.
	Create(ctx context.Context, v *models.Value) (*models.Value, error)
	GetByID(ctx context.Context, id int64) (*models.Value, error)
	GetByHash(ctx context.Context, hash string) (*models.Value, error)
}
