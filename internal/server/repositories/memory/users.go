package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) Upsert(ctx context.Context, email, displayName string, isAdmin bool) (*models.User, error) {
	defer r.s.lock(ctx)()

	now := r.s.now()
	for id, u := range r.s.t.users {
		if u.Email == email {
			u.DisplayName = displayName
			u.IsAdmin = u.IsAdmin || isAdmin
			u.UpdatedAt = now
			r.s.t.users[id] = u
			return &u, nil
		}
	}
	u := models.User{
		ID:          r.s.nextID(),
		Email:       email,
		DisplayName: displayName,
		IsAdmin:     isAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.t.users[u.ID] = u
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.t.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	defer r.s.lock(ctx)()

	var result []*models.User
	for _, u := range r.s.t.users {
		result = append(result, &u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *userRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.t.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = r.s.now()
	r.s.t.users[id] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.users[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteUser(id)
	return nil
}
