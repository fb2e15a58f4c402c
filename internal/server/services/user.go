// Package services contains the storage core's business logic: the entry
// and collection catalog, the access resolver, the public capability
// gateway and the user/session collaborator.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// UserService provides the user records and sessions the catalog consumes:
// - EnsureUser: create or refresh a user on login
// - CreateSession / ResolveSession: opaque session tokens
// - admin maintenance: SetAdmin, ListUsers, DeleteUser
type UserService struct {
	db              dbx.DBTX
	repomanager     repomanager.RepositoryManager
	cfg             *config.Config
	sessionValidity time.Duration
	logger          logging.Logger
	now             func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		cfg:             cfg,
		sessionValidity: cfg.SessionValidity,
		logger:          logger.With("module", "users"),
		now:             time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser upserts the user identified by email. Users listed in the
// configured admin emails become global admins; an existing admin flag is
// never lowered here.
func (s *UserService) EnsureUser(ctx context.Context, email, displayName string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	u, err := s.repomanager.Users(s.db).Upsert(ctx, email, displayName, s.cfg.IsAdminEmail(email))
	if err != nil {
		return nil, fmt.Errorf("error ensuring user: %w", err)
	}
	return u, nil
}

func (s *UserService) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	if err := s.repomanager.Users(s.db).SetAdmin(ctx, id, isAdmin); err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	s.logger.Info(ctx, "admin flag changed", "user_id", id, "is_admin", isAdmin)
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// DeleteUser removes the user with their sessions, entries and collections.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// CreateSession issues a random session token for userID.
func (s *UserService) CreateSession(ctx context.Context, userID int64) (*models.Session, error) {
	token, err := common.MakeRandHexString(common.SessionTokenSize)
	if err != nil {
		return nil, common.ErrorInternal
	}
	now := s.now()
	expires := now.Add(s.sessionValidity)
	if err := s.repomanager.Sessions(s.db).Create(ctx, userID, token, expires); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return &models.Session{UserID: userID, Token: token, ExpiresAt: expires, CreatedAt: now}, nil
}

// ResolveSession returns the user behind token. Unknown tokens yield
// ErrorUnauthorized, expired ones ErrSessionExpired.
func (s *UserService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	repo := s.repomanager.Sessions(s.db)
	sess, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := repo.Delete(ctx, token); err != nil {
			s.logger.Warn(ctx, "failed to delete expired session", "error", err)
		}
		return nil, common.ErrSessionExpired
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// DeleteSession logs a token out. Unknown tokens are ignored.
func (s *UserService) DeleteSession(ctx context.Context, token string) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, token)
}

// PurgeExpiredSessions deletes every expired session and reports how many.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}
