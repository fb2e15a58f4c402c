// Package memory implements every repository over process-local maps. It
// mirrors the PostgreSQL schema's uniqueness rules, foreign keys and
// cascades so services can be exercised without a database.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/access"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/blobparts"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/collections"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/values"
)

type tables struct {
	users       map[int64]models.User
	sessions    map[string]models.Session
	collections map[int64]models.Collection
	values      map[int64]models.Value
	parts       map[int64]models.BlobPart
	entries     map[int64]models.Entry
	grants      map[int64]models.AccessGrant
	seq         int64
}

func newTables() tables {
	return tables{
		users:       map[int64]models.User{},
		sessions:    map[string]models.Session{},
		collections: map[int64]models.Collection{},
		values:      map[int64]models.Value{},
		parts:       map[int64]models.BlobPart{},
		entries:     map[int64]models.Entry{},
		grants:      map[int64]models.AccessGrant{},
	}
}

func (t tables) clone() tables {
	return tables{
		users:       maps.Clone(t.users),
		sessions:    maps.Clone(t.sessions),
		collections: maps.Clone(t.collections),
		values:      maps.Clone(t.values),
		parts:       maps.Clone(t.parts),
		entries:     maps.Clone(t.entries),
		grants:      maps.Clone(t.grants),
		seq:         t.seq,
	}
}

// Store holds all tables. It satisfies repomanager.RepositoryManager and
// dbx.Transactor.
//
// Transactions are serialized: WithTx holds txMu exclusively and restores
// a snapshot when fn fails, while operations outside a transaction take it
// shared, so no caller observes a half-applied unit of work.
type Store struct {
	txMu sync.RWMutex
	mu   sync.Mutex
	t    tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{t: newTables(), now: time.Now}
}

type txKey struct{}

// WithTx implements dbx.Transactor. fn receives a nil handle; repositories
// returned by the Store ignore it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	if ctx.Value(txKey{}) == s {
		return fn(ctx, nil)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.t.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s), nil)
}

func (s *Store) restore(t tables) {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
}

// lock acquires the table mutex, and the shared transaction lock when the
// caller is not already inside WithTx. The returned func releases both.
func (s *Store) lock(ctx context.Context) func() {
	inTx := ctx.Value(txKey{}) == s
	if !inTx {
		s.txMu.RLock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.RUnlock()
		}
	}
}

func (s *Store) nextID() int64 {
	s.t.seq++
	return s.t.seq
}

// RunMigrations is a no-op: the schema is implicit in the maps.
func (s *Store) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (s *Store) Users(db dbx.DBTX) users.Repository             { return &userRepo{s} }
func (s *Store) Sessions(db dbx.DBTX) sessions.Repository       { return &sessionRepo{s} }
func (s *Store) Collections(db dbx.DBTX) collections.Repository { return &collectionRepo{s} }
func (s *Store) Values(db dbx.DBTX) values.Repository           { return &valueRepo{s} }
func (s *Store) BlobParts(db dbx.DBTX) blobparts.Repository     { return &partRepo{s} }
func (s *Store) Entries(db dbx.DBTX) entries.Repository         { return &entryRepo{s} }
func (s *Store) Access(db dbx.DBTX) access.Repository           { return &accessRepo{s} }

// Cascades, called with mu held.

func (s *Store) deleteUser(id int64) {
	delete(s.t.users, id)
	for tok, sess := range s.t.sessions {
		if sess.UserID == id {
			delete(s.t.sessions, tok)
		}
	}
	for cid, c := range s.t.collections {
		if c.UserID == id {
			s.deleteCollection(cid)
		}
	}
	for eid, e := range s.t.entries {
		if e.UserID == id {
			s.deleteEntry(eid)
		}
	}
	for gid, g := range s.t.grants {
		if g.UserID == id {
			delete(s.t.grants, gid)
		}
	}
}

func (s *Store) deleteCollection(id int64) {
	delete(s.t.collections, id)
	for eid, e := range s.t.entries {
		if e.CollectionID != nil && *e.CollectionID == id {
			s.deleteEntry(eid)
		}
	}
	for gid, g := range s.t.grants {
		if g.CollectionID != nil && *g.CollectionID == id {
			delete(s.t.grants, gid)
		}
	}
}

func (s *Store) deleteEntry(id int64) {
	delete(s.t.entries, id)
	for gid, g := range s.t.grants {
		if g.EntryID != nil && *g.EntryID == id {
			delete(s.t.grants, gid)
		}
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
