package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type collectionRepo struct{ s *Store }

func copyCollection(c models.Collection) *models.Collection {
	c.Metadata = clonePtr(c.Metadata)
	c.Origin = clonePtr(c.Origin)
	return &c
}

func (r *collectionRepo) secretTaken(secret string, except int64) bool {
	for id, c := range r.s.t.collections {
		if id != except && c.Secret == secret {
			return true
		}
	}
	return false
}

func (r *collectionRepo) Create(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.users[c.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	if r.secretTaken(c.Secret, 0) {
		return nil, common.ErrorAlreadyExists
	}
	now := r.s.now()
	c.ID = r.s.nextID()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.s.t.collections[c.ID] = *copyCollection(*c)
	return c, nil
}

func (r *collectionRepo) GetByID(ctx context.Context, id int64) (*models.Collection, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.t.collections[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyCollection(c), nil
}

func (r *collectionRepo) GetBySecret(ctx context.Context, secret string) (*models.Collection, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.t.collections {
		if c.Secret == secret {
			return copyCollection(c), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *collectionRepo) Update(ctx context.Context, c *models.Collection) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.t.collections[c.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Name = c.Name
	cur.Description = c.Description
	cur.Metadata = clonePtr(c.Metadata)
	cur.Origin = clonePtr(c.Origin)
	cur.UpdatedAt = r.s.now()
	r.s.t.collections[c.ID] = cur
	return nil
}

func (r *collectionRepo) UpdateSecret(ctx context.Context, id int64, secret string) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.t.collections[id]
	if !ok {
		return common.ErrorNotFound
	}
	if r.secretTaken(secret, id) {
		return common.ErrorAlreadyExists
	}
	cur.Secret = secret
	cur.UpdatedAt = r.s.now()
	r.s.t.collections[id] = cur
	return nil
}

func (r *collectionRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.collections[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteCollection(id)
	return nil
}

func (r *collectionRepo) ListAccessible(ctx context.Context, userID int64) ([]*models.Collection, error) {
	defer r.s.lock(ctx)()

	granted := map[int64]bool{}
	for _, g := range r.s.t.grants {
		if g.UserID == userID && g.CollectionID != nil {
			granted[*g.CollectionID] = true
		}
	}
	return r.list(func(c models.Collection) bool {
		return c.UserID == userID || granted[c.ID]
	}), nil
}

func (r *collectionRepo) ListAll(ctx context.Context) ([]*models.Collection, error) {
	defer r.s.lock(ctx)()

	return r.list(func(models.Collection) bool { return true }), nil
}

func (r *collectionRepo) list(keep func(models.Collection) bool) []*models.Collection {
	var result []*models.Collection
	for _, c := range r.s.t.collections {
		if keep(c) {
			result = append(result, copyCollection(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}
