package entries

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository stores key_value_entries. Read methods join the referenced
// value so Secret, Size and IsMultipart are populated.
type Repository interface {
	Create(ctx context.Context, e *models.Entry) (*models.Entry, error)
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	Update(ctx context.Context, e *models.Entry) error
	Delete(ctx context.Context, id int64) error
	// List returns root entries of userID when collectionID is nil, otherwise
	// the entries of that collection regardless of owner.
	List(ctx context.Context, userID int64, collectionID *int64, f models.EntryFilter) ([]*models.Entry, error)
	FindByKeyAndHash(ctx context.Context, key, hash string) (*models.Entry, error)
}
