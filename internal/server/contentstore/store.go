// Package contentstore implements the content-addressed value store:
// deduplicated writes, transparent chunking of payloads above the chunk
// size, and buffered or streaming reads.
package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/objectstore"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// ChunkSize is the largest payload stored inline.
	ChunkSize int
	// CacheSize bounds the value cache; 0 disables it.
	CacheSize int
	// Objects, when set, receives part bytes instead of blob_parts.data.
	Objects objectstore.Store
	// UploadConcurrency bounds parallel part uploads to Objects.
	UploadConcurrency int
}

type Store struct {
	tx          dbx.Transactor
	db          dbx.DBTX
	repos       repomanager.RepositoryManager
	objects     objectstore.Store
	chunkSize   int
	concurrency int
	cache       *lru.Cache
	logger      logging.Logger
	now         func() time.Time
}

func New(tx dbx.Transactor, db dbx.DBTX, repos repomanager.RepositoryManager, logger logging.Logger, o Options) (*Store, error) {
	if o.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", common.ErrorValidation)
	}
	s := &Store{
		tx:          tx,
		db:          db,
		repos:       repos,
		objects:     o.Objects,
		chunkSize:   o.ChunkSize,
		concurrency: o.UploadConcurrency,
		logger:      logger.With("module", "contentstore"),
		now:         time.Now,
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	if o.CacheSize > 0 {
		c, err := lru.New(o.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

type hashKey string

// cloneValue copies v including its inline payload, so cached rows never
// share memory with callers.
func cloneValue(v *models.Value) *models.Value {
	cp := *v
	if v.StringValue != nil {
		str := *v.StringValue
		cp.StringValue = &str
	}
	if v.BlobValue != nil {
		cp.BlobValue = bytes.Clone(v.BlobValue)
	}
	return &cp
}

func (s *Store) remember(v *models.Value) {
	if s.cache == nil {
		return
	}
	cp := cloneValue(v)
	s.cache.Add(hashKey(cp.Hash), cp)
	s.cache.Add(cp.ID, cp)
}

func (s *Store) cached(key any) (*models.Value, bool) {
	if s.cache == nil {
		return nil, false
	}
	if v, ok := s.cache.Get(key); ok {
		return cloneValue(v.(*models.Value)), true
	}
	return nil, false
}

// Write stores c and returns its Value, reusing the existing one when the
// same bytes were written before. typ is recorded only on first write.
func (s *Store) Write(ctx context.Context, c models.Content, typ string) (*models.Value, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: Either string_value or blob_value must be set", common.ErrorValidation)
	}
	if err := models.CheckContent(c); err != nil {
		return nil, err
	}
	payload := c.Bytes()
	hash := Hash(payload)

	if v, ok := s.cached(hashKey(hash)); ok {
		return v, nil
	}
	existing, err := s.repos.Values(s.db).GetByHash(ctx, hash)
	if err == nil {
		s.logger.Debug(ctx, "value deduplicated", "hash", hash, "value_id", existing.ID)
		s.remember(existing)
		return existing, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	v := &models.Value{
		Hash:        hash,
		Kind:        c.Kind(),
		Type:        typ,
		Size:        int64(len(payload)),
		IsMultipart: len(payload) > s.chunkSize,
	}

	var parts []*models.BlobPart
	if v.IsMultipart {
		parts = s.split(payload)
	} else if c.Kind() == models.ValueKindText {
		str := string(payload)
		v.StringValue = &str
	} else {
		v.BlobValue = append([]byte{}, payload...)
	}

	uploaded, err := s.upload(ctx, parts)
	if err != nil {
		return nil, err
	}

	lost := false
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Values(tx).Create(ctx, v); err != nil {
			if errors.Is(err, common.ErrorConflict) {
				lost = true
				return nil
			}
			return err
		}
		partRepo := s.repos.BlobParts(tx)
		for _, p := range parts {
			p.ValueID = v.ID
			if err := partRepo.Create(ctx, p); err != nil {
				return fmt.Errorf("part %d: %w", p.PartIndex, err)
			}
		}
		return nil
	})
	if err != nil || lost {
		s.discard(ctx, uploaded)
	}
	if err != nil {
		return nil, err
	}

	if lost {
		winner, err := s.repos.Values(s.db).GetByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		s.logger.Debug(ctx, "value written concurrently, using existing row", "hash", hash, "value_id", winner.ID)
		s.remember(winner)
		return winner, nil
	}

	if v.IsMultipart {
		s.logger.Info(ctx, "multipart value written", "hash", hash, "value_id", v.ID, "size", v.Size, "parts", len(parts))
	} else {
		s.logger.Debug(ctx, "value written", "hash", hash, "value_id", v.ID, "size", v.Size)
	}
	s.remember(v)
	return v, nil
}

func (s *Store) split(payload []byte) []*models.BlobPart {
	n := (len(payload) + s.chunkSize - 1) / s.chunkSize
	parts := make([]*models.BlobPart, 0, n)
	for i := 0; i < n; i++ {
		end := min((i+1)*s.chunkSize, len(payload))
		chunk := payload[i*s.chunkSize : end]
		parts = append(parts, &models.BlobPart{
			PartIndex: i,
			Size:      int64(len(chunk)),
			Data:      chunk,
		})
	}
	return parts
}

// upload pushes part bytes to object storage and points each part at its
// key. It returns the keys written so far, which are removed on failure.
func (s *Store) upload(ctx context.Context, parts []*models.BlobPart) ([]string, error) {
	if s.objects == nil || len(parts) == 0 {
		return nil, nil
	}

	prefix := objectstore.NewValuePrefix(s.now())
	keys := make([]string, len(parts))
	for i, p := range parts {
		key := objectstore.PartKey(prefix, p.PartIndex)
		keys[i] = key
		p.StorageKey = &key
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range parts {
		g.Go(func() error {
			return s.objects.Put(gctx, keys[i], p.Data)
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, keys)
		return nil, fmt.Errorf("upload parts: %w", err)
	}
	return keys, nil
}

// discard deletes uploaded objects. Failures are logged and leave orphans.
func (s *Store) discard(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.objects.Delete(context.WithoutCancel(ctx), k); err != nil {
			s.logger.Warn(ctx, "failed to delete part object", "key", k, "error", err)
		}
	}
}

// Get returns the value with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*models.Value, error) {
	if v, ok := s.cached(id); ok {
		return v, nil
	}
	v, err := s.repos.Values(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(v)
	return v, nil
}

// Read returns the whole payload of v.
func (s *Store) Read(ctx context.Context, v *models.Value) (models.Content, error) {
	if !v.IsMultipart {
		return inline(v)
	}
	rc, err := s.Open(ctx, v)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, v.Size))
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, err
	}
	return models.ContentOf(v.Kind, buf.Bytes())
}

func inline(v *models.Value) (models.Content, error) {
	switch v.Kind {
	case models.ValueKindText:
		if v.StringValue == nil {
			return nil, fmt.Errorf("%w: value %d has no string_value", common.ErrorInternal, v.ID)
		}
		return models.Text(*v.StringValue), nil
	case models.ValueKindBinary:
		return models.Binary(bytes.Clone(v.BlobValue)), nil
	default:
		return nil, fmt.Errorf("%w: value %d has unknown kind %q", common.ErrorInternal, v.ID, v.Kind)
	}
}

// Open streams the payload of v. Multipart values are fetched one part at
// a time.
func (s *Store) Open(ctx context.Context, v *models.Value) (io.ReadCloser, error) {
	if !v.IsMultipart {
		c, err := inline(v)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(c.Bytes())), nil
	}

	parts, err := s.repos.BlobParts(s.db).ListByValue(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	var total int64
	for i, p := range parts {
		if p.PartIndex != i {
			return nil, fmt.Errorf("%w: value %d is missing part %d", common.ErrorInternal, v.ID, i)
		}
		total += p.Size
	}
	if total != v.Size {
		return nil, fmt.Errorf("%w: value %d parts hold %d of %d bytes", common.ErrorInternal, v.ID, total, v.Size)
	}

	return &partReader{ctx: ctx, store: s, parts: parts}, nil
}

func (s *Store) fetch(ctx context.Context, p *models.BlobPart) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if p.StorageKey != nil {
		if s.objects == nil {
			return nil, fmt.Errorf("%w: part %d is in object storage, which is not configured", common.ErrorInternal, p.ID)
		}
		data, err = s.objects.Get(ctx, *p.StorageKey)
	} else {
		data, err = s.repos.BlobParts(s.db).GetData(ctx, p.ID)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != p.Size {
		return nil, fmt.Errorf("%w: part %d has %d bytes, expected %d", common.ErrorInternal, p.ID, len(data), p.Size)
	}
	return data, nil
}

type partReader struct {
	ctx   context.Context
	store *Store
	parts []*models.BlobPart
	next  int
	buf   []byte
}

func (r *partReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.next >= len(r.parts) {
			return 0, io.EOF
		}
		data, err := r.store.fetch(r.ctx, r.parts[r.next])
		if err != nil {
			return 0, err
		}
		r.buf = data
		r.next++
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *partReader) Close() error {
	r.buf = nil
	r.next = len(r.parts)
	return nil
}
