package collections

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Collection) (*models.Collection, error)
	GetByID(ctx context.Context, id int64) (*models.Collection, error)
	GetBySecret(ctx context.Context, secret string) (*models.Collection, error)
	Update(ctx context.Context, c *models.Collection) error
	UpdateSecret(ctx context.Context, id int64, secret string) error
	Delete(ctx context.Context, id int64) error
	ListAccessible(ctx context.Context, userID int64) ([]*models.Collection, error)
	ListAll(ctx context.Context) ([]*models.Collection, error)
}
