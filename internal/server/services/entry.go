package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/contentstore"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// NewEntry is the input of CreateEntry. CollectionID nil places the entry
// in the caller's root.
type NewEntry struct {
	Key          string
	Type         string
	Content      models.Content
	Filename     *string
	CollectionID *int64
	Metadata     *string
	Origin       *string
}

// EntryScope is the destination of a move: a collection, or the owner's
// root when CollectionID is nil.
type EntryScope struct {
	CollectionID *int64
}

// EntryUpdate lists the fields UpdateEntry changes; nil fields are kept.
// Without Content the entry keeps its value.
type EntryUpdate struct {
	Key      *string
	Content  models.Content
	Type     *string
	Filename *string
	Metadata *string
	Origin   *string
	Move     *EntryScope
}

// EntryService is the entry half of the catalog. Every operation is checked
// against the caller's resolved access level.
type EntryService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	content     *contentstore.Store
	access      *AccessService
	types       TypeValidator
	logger      logging.Logger
}

func NewEntryService(db dbx.DBTX, m repomanager.RepositoryManager, content *contentstore.Store,
	access *AccessService, types TypeValidator, logger logging.Logger) *EntryService {
	if types == nil {
		types = ScalarTypes{}
	}
	return &EntryService{
		db:          db,
		repomanager: m,
		content:     content,
		access:      access,
		types:       types,
		logger:      logger.With("module", "entries"),
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", common.ErrorValidation)
	}
	return nil
}

func missingContent() error {
	return fmt.Errorf("%w: Either string_value or blob_value must be set", common.ErrorValidation)
}

// CreateEntry stores the content (deduplicated) and a new entry pointing at
// it. Creating inside a collection requires READWRITE on it.
func (s *EntryService) CreateEntry(ctx context.Context, user *models.User, in NewEntry) (*models.Entry, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	if err := validateKey(in.Key); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("%w: type is required", common.ErrorValidation)
	}
	if in.Content == nil {
		return nil, missingContent()
	}
	if err := models.CheckContent(in.Content); err != nil {
		return nil, err
	}
	if err := s.types.Validate(in.Type, in.Content); err != nil {
		return nil, err
	}
	if in.CollectionID != nil {
		if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, *in.CollectionID, models.AccessReadWrite); err != nil {
			return nil, err
		}
	}

	v, err := s.content.Write(ctx, in.Content, in.Type)
	if err != nil {
		return nil, fmt.Errorf("error storing value: %w", err)
	}

	e := &models.Entry{
		Key:          in.Key,
		ValueID:      v.ID,
		Type:         in.Type,
		Filename:     in.Filename,
		UserID:       user.ID,
		CollectionID: in.CollectionID,
		Metadata:     in.Metadata,
		Origin:       in.Origin,
	}
	if _, err := s.repomanager.Entries(s.db).Create(ctx, e); err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}
	e.Secret, e.Size, e.IsMultipart = v.Hash, v.Size, v.IsMultipart

	s.logger.Info(ctx, "entry created", "entry_id", e.ID, "user_id", user.ID, "value_id", v.ID)
	return e, nil
}

// UpdateEntry applies upd. A rename or move without Content never touches
// the value reference; new Content is written (or deduplicated) and the
// entry is repointed, leaving the old value in place.
func (s *EntryService) UpdateEntry(ctx context.Context, user *models.User, id int64, upd EntryUpdate) (*models.Entry, error) {
	if upd.Key != nil {
		if err := validateKey(*upd.Key); err != nil {
			return nil, err
		}
	}
	if upd.Type != nil && strings.TrimSpace(*upd.Type) == "" {
		return nil, fmt.Errorf("%w: type is required", common.ErrorValidation)
	}
	if upd.Content != nil {
		if err := models.CheckContent(upd.Content); err != nil {
			return nil, err
		}
	}

	level, err := s.access.RequireAccess(ctx, user, models.ResourceEntry, id, models.AccessReadWrite)
	if err != nil {
		return nil, err
	}
	e, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Moving out of a collection to the owner's root requires ADMIN.
	if upd.Move != nil && upd.Move.CollectionID == nil && e.CollectionID != nil && !level.CanManageAccess() {
		return nil, fmt.Errorf("%w: moving an entry out of a collection requires ADMIN", common.ErrorForbidden)
	}

	typ := e.Type
	if upd.Type != nil {
		typ = *upd.Type
	}
	switch {
	case upd.Content != nil:
		if err := s.types.Validate(typ, upd.Content); err != nil {
			return nil, err
		}
	case typ != e.Type && s.types.Constrains(typ):
		current, err := s.readValue(ctx, e.ValueID)
		if err != nil {
			return nil, err
		}
		if err := s.types.Validate(typ, current); err != nil {
			return nil, err
		}
	}

	if upd.Move != nil && upd.Move.CollectionID != nil {
		if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, *upd.Move.CollectionID, models.AccessReadWrite); err != nil {
			return nil, err
		}
	}

	if upd.Content != nil {
		v, err := s.content.Write(ctx, upd.Content, typ)
		if err != nil {
			return nil, fmt.Errorf("error storing value: %w", err)
		}
		e.ValueID = v.ID
	}
	if upd.Key != nil {
		e.Key = *upd.Key
	}
	e.Type = typ
	if upd.Filename != nil {
		e.Filename = upd.Filename
	}
	if upd.Metadata != nil {
		e.Metadata = upd.Metadata
	}
	if upd.Origin != nil {
		e.Origin = upd.Origin
	}
	if upd.Move != nil {
		e.CollectionID = upd.Move.CollectionID
	}

	if err := s.repomanager.Entries(s.db).Update(ctx, e); err != nil {
		return nil, fmt.Errorf("error updating entry: %w", err)
	}
	s.logger.Info(ctx, "entry updated", "entry_id", id, "user_id", user.ID, "value_id", e.ValueID)
	return s.repomanager.Entries(s.db).GetByID(ctx, id)
}

// DeleteEntry removes the entry only; its value stays. Requires ADMIN.
func (s *EntryService) DeleteEntry(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceEntry, id, models.AccessAdmin); err != nil {
		return err
	}
	if err := s.repomanager.Entries(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting entry: %w", err)
	}
	s.logger.Info(ctx, "entry deleted", "entry_id", id, "user_id", user.ID)
	return nil
}

// GetEntry returns entry metadata, including its content-derived secret.
func (s *EntryService) GetEntry(ctx context.Context, user *models.User, id int64) (*models.Entry, error) {
	if _, err := s.access.RequireAccess(ctx, user, models.ResourceEntry, id, models.AccessReadOnly); err != nil {
		return nil, err
	}
	return s.repomanager.Entries(s.db).GetByID(ctx, id)
}

// ReadEntry returns the entry and its whole payload.
func (s *EntryService) ReadEntry(ctx context.Context, user *models.User, id int64) (*models.Entry, models.Content, error) {
	e, err := s.GetEntry(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.readValue(ctx, e.ValueID)
	if err != nil {
		return nil, nil, err
	}
	return e, c, nil
}

// OpenEntry returns the entry and a stream of its payload. The caller
// closes the reader.
func (s *EntryService) OpenEntry(ctx context.Context, user *models.User, id int64) (*models.Entry, io.ReadCloser, error) {
	e, err := s.GetEntry(ctx, user, id)
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

// ListEntries lists the caller's root entries when collectionID is nil,
// otherwise the entries of that collection (READONLY required).
func (s *EntryService) ListEntries(ctx context.Context, user *models.User, collectionID *int64, f models.EntryFilter) ([]*models.Entry, error) {
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	if collectionID != nil {
		if _, err := s.access.RequireAccess(ctx, user, models.ResourceCollection, *collectionID, models.AccessReadOnly); err != nil {
			return nil, err
		}
	}
	list, err := s.repomanager.Entries(s.db).List(ctx, user.ID, collectionID, f)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}

func (s *EntryService) readValue(ctx context.Context, valueID int64) (models.Content, error) {
	v, err := s.content.Get(ctx, valueID)
	if err != nil {
		return nil, err
	}
	return s.content.Read(ctx, v)
}
