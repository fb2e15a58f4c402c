package access

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	// Upsert creates the grant or overwrites the level of the existing grant
	// for the same user and target.
	Upsert(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error)
	Get(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) (*models.AccessGrant, error)
	Delete(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) error
	ListForResource(ctx context.Context, rt models.ResourceType, resourceID int64) ([]*models.AccessGrant, error)
}
