package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

type NewCollection struct {
	Name        string
	Description string
	Metadata    *string
	Origin      *string
}

// CollectionUpdate lists the fields UpdateCollection changes; nil fields
// are kept.
type CollectionUpdate struct {
	Name        *string
	Description *string
	Metadata    *string
	Origin      *string
}

// secretAttempts bounds retries when a freshly generated secret collides.
const secretAttempts = 3

type CollectionService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	access      *AccessService
	logger      logging.Logger
}

func NewCollectionService(db dbx.DBTX, m repomanager.RepositoryManager, access *AccessService, logger logging.Logger) *CollectionService {
	return &CollectionService{db: db, repomanager: m, access: access, logger: logger.With("module", "collections")}
}

func newCollectionSecret() (string, error) {
	return common.MakeRandHexString(common.CollectionSecretSize)
}

// CreateCollection creates a collection owned by user with a fresh random
// secret.
func (s *CollectionService) CreateCollection(ctx context.Context, user *models.User, in NewCollection) (*models.Collection, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", common.ErrorValidation)
	}

	repo := s.repomanager.Collections(s.db)
	for attempt := 1; ; attempt++ {
		secret, err := newCollectionSecret()
		if err != nil {
			return nil, common.ErrorInternal
		}
		c, err := repo.Create(ctx, &models.Collection{
			Name:        in.Name,
			Description: in.Description,
			UserID:      user.ID,
			Secret:      secret,
			Metadata:    in.Metadata,
			Origin:      in.Origin,
		})
		if errors.Is(err, common.ErrorAlreadyExists) && attempt < secretAttempts {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error creating collection: %w", err)
		}
		s.logger.Info(ctx, "collection created", "collection_id", c.ID, "user_id", user.ID)
		return c, nil
	}
}

func (s *CollectionService) GetCollection(ctx context.Context, user *models.User, id int64) (*models.Collection, error) {
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, id, models.AccessReadOnly); err != nil {
		return nil, err
	}
	return s.repomanager.Collections(s.db).GetByID(ctx, id)
}

// UpdateCollection changes descriptive fields. Requires READWRITE.
func (s *CollectionService) UpdateCollection(ctx context.Context, user *models.User, id int64, upd CollectionUpdate) (*models.Collection, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", common.ErrorValidation)
	}
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, id, models.AccessReadWrite); err != nil {
		return nil, err
	}

	repo := s.repomanager.Collections(s.db)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Metadata != nil {
		c.Metadata = upd.Metadata
	}
	if upd.Origin != nil {
		c.Origin = upd.Origin
	}
	if err := repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("error updating collection: %w", err)
	}
	s.logger.Info(ctx, "collection updated", "collection_id", id, "user_id", user.ID)
	return repo.GetByID(ctx, id)
}

// DeleteCollection removes the collection and, by cascade, its entries.
// Values are not touched. Requires ADMIN.
func (s *CollectionService) DeleteCollection(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, id, models.AccessAdmin); err != nil {
		return err
	}
	if err := s.repomanager.Collections(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting collection: %w", err)
	}
	s.logger.Info(ctx, "collection deleted", "collection_id", id, "user_id", user.ID)
	return nil
}

// ListCollections returns the collections user owns or was granted, newest
// first; every collection for a global admin.
func (s *CollectionService) ListCollections(ctx context.Context, user *models.User) ([]*models.Collection, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Collections(s.db)
	var (
		list []*models.Collection
		err  error
	)
	if user.IsAdmin {
		list, err = repo.ListAll(ctx)
	} else {
		list, err = repo.ListAccessible(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing collections: %w", err)
	}
	return list, nil
}

// RotateSecret replaces the collection secret, invalidating public links.
// Requires ADMIN.
func (s *CollectionService) RotateSecret(ctx context.Context, user *models.User, id int64) (*models.Collection, error) {
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, id, models.AccessAdmin); err != nil {
		return nil, err
	}
	repo := s.repomanager.Collections(s.db)
	for attempt := 1; ; attempt++ {
		secret, err := newCollectionSecret()
		if err != nil {
			return nil, common.ErrorInternal
		}
		err = repo.UpdateSecret(ctx, id, secret)
		if errors.Is(err, common.ErrorAlreadyExists) && attempt < secretAttempts {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error rotating secret: %w", err)
		}
		break
	}
	s.logger.Info(ctx, "collection secret rotated", "collection_id", id, "user_id", user.ID)
	return repo.GetByID(ctx, id)
}
