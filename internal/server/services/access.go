package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// AccessService resolves a user's effective level on a collection or entry
// and manages grants. It never returns ErrorForbidden from CheckAccess: no
// access is reported as models.AccessNone.
type AccessService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAccessService(db dbx.DBTX, m repomanager.RepositoryManager, logger logging.Logger) *AccessService {
	return &AccessService{db: db, repomanager: m, logger: logger.With("module", "access")}
}

// CheckAccess evaluates, in order: global admin, resource existence,
// ownership (owning an entry's collection counts), a grant on the exact
// resource, and for entries the grant on the containing collection. A
// direct entry grant wins over the collection grant even when it is lower.
func (s *AccessService) CheckAccess(ctx context.Context, user *models.User, rt models.ResourceType, id int64) (models.AccessLevel, error) {
	level, _, err := s.resolve(ctx, user, rt, id)
	return level, err
}

// RequireAccess is CheckAccess for callers that want an error: it returns
// ErrorNotFound for a missing resource and ErrorForbidden when the level is
// below min.
func (s *AccessService) RequireAccess(ctx context.Context, user *models.User, rt models.ResourceType, id int64, min models.AccessLevel) (models.AccessLevel, error) {
	level, exists, err := s.resolve(ctx, user, rt, id)
	if err != nil {
		return models.AccessNone, err
	}
	if !exists {
		return models.AccessNone, fmt.Errorf("%s %d: %w", rt, id, common.ErrorNotFound)
	}
	if level < min {
		return level, fmt.Errorf("%s %d requires %s: %w", rt, id, min, common.ErrorForbidden)
	}
	return level, nil
}

func (s *AccessService) resolve(ctx context.Context, user *models.User, rt models.ResourceType, id int64) (models.AccessLevel, bool, error) {
	if user == nil {
		return models.AccessNone, false, common.ErrorUnauthorized
	}
	if user.IsAdmin {
		ok, err := s.exists(ctx, rt, id)
		return models.AccessAdmin, ok, err
	}

	switch rt {
	case models.ResourceCollection:
		c, err := s.repomanager.Collections(s.db).GetByID(ctx, id)
		if err != nil {
			return absent(err)
		}
		if c.UserID == user.ID {
			return models.AccessAdmin, true, nil
		}
		level, err := s.grantLevel(ctx, user.ID, rt, id)
		return level, true, err

	case models.ResourceEntry:
		e, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
		if err != nil {
			return absent(err)
		}
		if e.UserID == user.ID {
			return models.AccessAdmin, true, nil
		}
		if e.CollectionID != nil {
			c, err := s.repomanager.Collections(s.db).GetByID(ctx, *e.CollectionID)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return models.AccessNone, true, err
			}
			if c != nil && c.UserID == user.ID {
				return models.AccessAdmin, true, nil
			}
		}

		level, err := s.grantLevel(ctx, user.ID, rt, id)
		if err != nil || level != models.AccessNone || e.CollectionID == nil {
			return level, true, err
		}
		level, err = s.grantLevel(ctx, user.ID, models.ResourceCollection, *e.CollectionID)
		return level, true, err

	default:
		return models.AccessNone, false, fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, rt)
	}
}

func absent(err error) (models.AccessLevel, bool, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return models.AccessNone, false, nil
	}
	return models.AccessNone, false, err
}

// exists is used on the admin path, where the level does not depend on the
// resource but RequireAccess still reports missing ones.
func (s *AccessService) exists(ctx context.Context, rt models.ResourceType, id int64) (bool, error) {
	var err error
	switch rt {
	case models.ResourceCollection:
		_, err = s.repomanager.Collections(s.db).GetByID(ctx, id)
	case models.ResourceEntry:
		_, err = s.repomanager.Entries(s.db).GetByID(ctx, id)
	default:
		return false, fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, rt)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *AccessService) grantLevel(ctx context.Context, userID int64, rt models.ResourceType, id int64) (models.AccessLevel, error) {
	g, err := s.repomanager.Access(s.db).Get(ctx, userID, rt, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.AccessNone, nil
		}
		return models.AccessNone, err
	}
	return g.Level, nil
}

// GrantAccess gives userID level on the resource, replacing any previous
// grant for the same pair. Callers gate this on CanManageAccess.
func (s *AccessService) GrantAccess(ctx context.Context, userID int64, rt models.ResourceType, id int64, level models.AccessLevel) (*models.AccessGrant, error) {
	if level < models.AccessReadOnly || level > models.AccessAdmin {
		return nil, fmt.Errorf("%w: invalid access level %d", common.ErrorValidation, level)
	}
	g := &models.AccessGrant{UserID: userID, Level: level}
	switch rt {
	case models.ResourceCollection:
		g.CollectionID = &id
	case models.ResourceEntry:
		g.EntryID = &id
	default:
		return nil, fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, rt)
	}

	g, err := s.repomanager.Access(s.db).Upsert(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("error granting access: %w", err)
	}
	s.logger.Info(ctx, "access granted", "user_id", userID, "resource", rt, "resource_id", id, "level", level.String())
	return g, nil
}

func (s *AccessService) RevokeAccess(ctx context.Context, userID int64, rt models.ResourceType, id int64) error {
	if err := s.repomanager.Access(s.db).Delete(ctx, userID, rt, id); err != nil {
		return fmt.Errorf("error revoking access: %w", err)
	}
	s.logger.Info(ctx, "access revoked", "user_id", userID, "resource", rt, "resource_id", id)
	return nil
}

// ListAccess returns all grants on the resource, newest first. It is not
// gated; callers restrict it to users who can manage access.
func (s *AccessService) ListAccess(ctx context.Context, rt models.ResourceType, id int64) ([]*models.AccessGrant, error) {
	grants, err := s.repomanager.Access(s.db).ListForResource(ctx, rt, id)
	if err != nil {
		return nil, fmt.Errorf("error listing access: %w", err)
	}
	return grants, nil
}
