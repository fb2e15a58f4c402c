package services

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/contentstore"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// PublicService serves anonymous reads authorized solely by a secret: the
// value hash for entries, the random token for collections. It does not
// consult AccessService.
type PublicService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	content     *contentstore.Store
	logger      logging.Logger
}

func NewPublicService(db dbx.DBTX, m repomanager.RepositoryManager, content *contentstore.Store, logger logging.Logger) *PublicService {
	return &PublicService{db: db, repomanager: m, content: content, logger: logger.With("module", "public")}
}

func (s *PublicService) GetCollectionBySecret(ctx context.Context, secret string) (*models.Collection, error) {
	if secret == "" {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Collections(s.db).GetBySecret(ctx, secret)
}

// ListCollectionEntriesBySecret lists the entries of the collection that
// secret belongs to.
func (s *PublicService) ListCollectionEntriesBySecret(ctx context.Context, secret string, f models.EntryFilter) (*models.Collection, []*models.Entry, error) {
	c, err := s.GetCollectionBySecret(ctx, secret)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.repomanager.Entries(s.db).List(ctx, c.UserID, &c.ID, f)
	if err != nil {
		return nil, nil, err
	}
	return c, list, nil
}

// GetEntryByKeySecret returns the oldest entry named key whose value hash
// is secret.
func (s *PublicService) GetEntryByKeySecret(ctx context.Context, key, secret string) (*models.Entry, error) {
	if key == "" || secret == "" {
		return nil, common.ErrorNotFound
	}
	e, err := s.repomanager.Entries(s.db).FindByKeyAndHash(ctx, key, secret)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "public entry lookup failed", "error", err)
		}
		return nil, err
	}
	return e, nil
}

// OpenEntryBySecret streams the payload of the entry GetEntryByKeySecret
// finds. The caller closes the reader.
func (s *PublicService) OpenEntryBySecret(ctx context.Context, key, secret string) (*models.Entry, io.ReadCloser, error) {
	e, err := s.GetEntryByKeySecret(ctx, key, secret)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.content.Get(ctx, e.ValueID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.content.Open(ctx, v)
	if err != nil {
		return nil, nil, err
	}
	return e, rc, nil
}
