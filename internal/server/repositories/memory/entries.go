package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type entryRepo struct{ s *Store }

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// checkRefs mirrors the foreign keys and partial unique indexes of
// key_value_entries.
func (r *entryRepo) checkRefs(e *models.Entry) error {
	if _, ok := r.s.t.values[e.ValueID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.t.users[e.UserID]; !ok {
		return common.ErrorNotFound
	}
	if e.CollectionID != nil {
		if _, ok := r.s.t.collections[*e.CollectionID]; !ok {
			return common.ErrorNotFound
		}
	}
	for id, cur := range r.s.t.entries {
		if id == e.ID || cur.Key != e.Key || !sameScope(cur.CollectionID, e.CollectionID) {
			continue
		}
		if e.CollectionID != nil || cur.UserID == e.UserID {
			return common.ErrorAlreadyExists
		}
	}
	return nil
}

func (r *entryRepo) stored(e *models.Entry) models.Entry {
	out := *e
	out.Filename = clonePtr(e.Filename)
	out.CollectionID = clonePtr(e.CollectionID)
	out.Metadata = clonePtr(e.Metadata)
	out.Origin = clonePtr(e.Origin)
	out.Secret, out.Size, out.IsMultipart = "", 0, false
	return out
}

// joined returns a caller-owned copy with value columns filled in.
func (r *entryRepo) joined(e models.Entry) *models.Entry {
	out := r.stored(&e)
	v := r.s.t.values[e.ValueID]
	out.Secret = v.Hash
	out.Size = v.Size
	out.IsMultipart = v.IsMultipart
	return &out
}

func (r *entryRepo) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	defer r.s.lock(ctx)()

	e.ID = 0
	if err := r.checkRefs(e); err != nil {
		return nil, err
	}
	now := r.s.now()
	e.ID = r.s.nextID()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.s.t.entries[e.ID] = r.stored(e)
	return e, nil
}

func (r *entryRepo) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.t.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.joined(e), nil
}

func (r *entryRepo) Update(ctx context.Context, e *models.Entry) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.t.entries[e.ID]
	if !ok {
		return common.ErrorNotFound
	}
	next := r.stored(e)
	next.UserID = cur.UserID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	if err := r.checkRefs(&next); err != nil {
		return err
	}
	r.s.t.entries[e.ID] = next
	return nil
}

func (r *entryRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.entries[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteEntry(id)
	return nil
}

func (r *entryRepo) List(ctx context.Context, userID int64, collectionID *int64, f models.EntryFilter) ([]*models.Entry, error) {
	defer r.s.lock(ctx)()

	var result []*models.Entry
	for _, e := range r.s.t.entries {
		if collectionID == nil {
			if e.UserID != userID || e.CollectionID != nil {
				continue
			}
		} else if e.CollectionID == nil || *e.CollectionID != *collectionID {
			continue
		}
		if f.Prefix != "" && !strings.HasPrefix(e.Key, f.Prefix) {
			continue
		}
		if f.Contains != "" && !strings.Contains(e.Key, f.Contains) {
			continue
		}
		result = append(result, r.joined(e))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Key != result[j].Key {
			return result[i].Key < result[j].Key
		}
		return result[i].ID < result[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(result) {
			return nil, nil
		}
		result = result[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(result) {
		result = result[:f.Limit]
	}
	return result, nil
}

func (r *entryRepo) FindByKeyAndHash(ctx context.Context, key, hash string) (*models.Entry, error) {
	defer r.s.lock(ctx)()

	var found *models.Entry
	for _, e := range r.s.t.entries {
		if e.Key != key || r.s.t.values[e.ValueID].Hash != hash {
			continue
		}
		if found == nil || e.CreatedAt.Before(found.CreatedAt) ||
			(e.CreatedAt.Equal(found.CreatedAt) && e.ID < found.ID) {
			found = r.joined(e)
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}
