package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.users[userID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.t.sessions[token]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.t.sessions[token] = models.Session{
		ID:        r.s.nextID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: r.s.now(),
	}
	return nil
}

func (r *sessionRepo) Find(ctx context.Context, token string) (*models.Session, error) {
	defer r.s.lock(ctx)()

	sess, ok := r.s.t.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sess, nil
}

func (r *sessionRepo) Delete(ctx context.Context, token string) error {
	defer r.s.lock(ctx)()

	delete(r.s.t.sessions, token)
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for tok, sess := range r.s.t.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.t.sessions, tok)
			n++
		}
	}
	return n, nil
}
