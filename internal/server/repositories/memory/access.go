package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type accessRepo struct{ s *Store }

func matches(g models.AccessGrant, rt models.ResourceType, id int64) bool {
	switch rt {
	case models.ResourceCollection:
		return g.CollectionID != nil && *g.CollectionID == id
	case models.ResourceEntry:
		return g.EntryID != nil && *g.EntryID == id
	}
	return false
}

func checkType(rt models.ResourceType) error {
	if rt != models.ResourceCollection && rt != models.ResourceEntry {
		return fmt.Errorf("%w: unknown resource type %q", common.ErrorValidation, rt)
	}
	return nil
}

func (r *accessRepo) Upsert(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error) {
	defer r.s.lock(ctx)()

	rt, id := g.Target()
	if err := checkType(rt); err != nil {
		return nil, err
	}
	if _, ok := r.s.t.users[g.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	switch rt {
	case models.ResourceCollection:
		if _, ok := r.s.t.collections[id]; !ok {
			return nil, common.ErrorNotFound
		}
	case models.ResourceEntry:
		if _, ok := r.s.t.entries[id]; !ok {
			return nil, common.ErrorNotFound
		}
	}

	now := r.s.now()
	for gid, cur := range r.s.t.grants {
		if cur.UserID == g.UserID && matches(cur, rt, id) {
			cur.Level = g.Level
			cur.UpdatedAt = now
			r.s.t.grants[gid] = cur
			g.ID, g.CreatedAt, g.UpdatedAt = cur.ID, cur.CreatedAt, cur.UpdatedAt
			return g, nil
		}
	}

	g.ID = r.s.nextID()
	g.CreatedAt = now
	g.UpdatedAt = now
	stored := *g
	stored.CollectionID = clonePtr(g.CollectionID)
	stored.EntryID = clonePtr(g.EntryID)
	stored.Email, stored.DisplayName = "", ""
	r.s.t.grants[g.ID] = stored
	return g, nil
}

func (r *accessRepo) Get(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) (*models.AccessGrant, error) {
	defer r.s.lock(ctx)()

	if err := checkType(rt); err != nil {
		return nil, err
	}
	for _, g := range r.s.t.grants {
		if g.UserID == userID && matches(g, rt, resourceID) {
			return &g, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *accessRepo) Delete(ctx context.Context, userID int64, rt models.ResourceType, resourceID int64) error {
	defer r.s.lock(ctx)()

	if err := checkType(rt); err != nil {
		return err
	}
	for gid, g := range r.s.t.grants {
		if g.UserID == userID && matches(g, rt, resourceID) {
			delete(r.s.t.grants, gid)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *accessRepo) ListForResource(ctx context.Context, rt models.ResourceType, resourceID int64) ([]*models.AccessGrant, error) {
	defer r.s.lock(ctx)()

	if err := checkType(rt); err != nil {
		return nil, err
	}
	var result []*models.AccessGrant
	for _, g := range r.s.t.grants {
		if !matches(g, rt, resourceID) {
			continue
		}
		u := r.s.t.users[g.UserID]
		g.Email, g.DisplayName = u.Email, u.DisplayName
		result = append(result, &g)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}
