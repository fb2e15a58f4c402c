package blobparts

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.BlobPart) error
	// ListByValue returns part descriptors ordered by part_index, without Data.
	ListByValue(ctx context.Context, valueID int64) ([]*models.BlobPart, error)
	GetData(ctx context.Context, partID int64) ([]byte, error)
	Count(ctx context.Context, valueID int64) (int, error)
}
