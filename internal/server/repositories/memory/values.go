package memory

import (
	"bytes"
	"context"
	"sort"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type valueRepo struct{ s *Store }

func copyValue(v models.Value) *models.Value {
	v.StringValue = clonePtr(v.StringValue)
	v.BlobValue = bytes.Clone(v.BlobValue)
	return &v
}

func (r *valueRepo) Create(ctx context.Context, v *models.Value) (*models.Value, error) {
	defer r.s.lock(ctx)()

	for _, cur := range r.s.t.values {
		if cur.Hash == v.Hash {
			return nil, common.ErrorConflict
		}
	}
	v.ID = r.s.nextID()
	v.CreatedAt = r.s.now()
	r.s.t.values[v.ID] = *copyValue(*v)
	return v, nil
}

func (r *valueRepo) GetByID(ctx context.Context, id int64) (*models.Value, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.t.values[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyValue(v), nil
}

func (r *valueRepo) GetByHash(ctx context.Context, hash string) (*models.Value, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.t.values {
		if v.Hash == hash {
			return copyValue(v), nil
		}
	}
	return nil, common.ErrorNotFound
}

type partRepo struct{ s *Store }

func (r *partRepo) Create(ctx context.Context, p *models.BlobPart) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.values[p.ValueID]; !ok {
		return common.ErrorNotFound
	}
	for _, cur := range r.s.t.parts {
		if cur.ValueID == p.ValueID && cur.PartIndex == p.PartIndex {
			return common.ErrorAlreadyExists
		}
	}
	p.ID = r.s.nextID()
	stored := *p
	stored.StorageKey = clonePtr(p.StorageKey)
	if p.StorageKey == nil {
		stored.Data = bytes.Clone(p.Data)
	} else {
		stored.Data = nil
	}
	r.s.t.parts[p.ID] = stored
	return nil
}

func (r *partRepo) ListByValue(ctx context.Context, valueID int64) ([]*models.BlobPart, error) {
	defer r.s.lock(ctx)()

	var result []*models.BlobPart
	for _, p := range r.s.t.parts {
		if p.ValueID == valueID {
			p.Data = nil
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PartIndex < result[j].PartIndex })
	return result, nil
}

func (r *partRepo) GetData(ctx context.Context, partID int64) ([]byte, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.t.parts[partID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return bytes.Clone(p.Data), nil
}

func (r *partRepo) Count(ctx context.Context, valueID int64) (int, error) {
	defer r.s.lock(ctx)()

	n := 0
	for _, p := range r.s.t.parts {
		if p.ValueID == valueID {
			n++
		}
	}
	return n, nil
}
