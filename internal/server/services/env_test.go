package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/contentstore"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
)

// env wires every service over one in-memory store.
type env struct {
	store       *memory.Store
	content     *contentstore.Store
	users       *UserService
	access      *AccessService
	entries     *EntryService
	collections *CollectionService
	public      *PublicService
}

func newEnv(t *testing.T, chunkSize int) *env {
	t.Helper()
	store := memory.NewStore()
	logger := logging.NewDiscardLogger()
	cfg := &config.Config{
		AdminEmails:     []string{"Root@Example.com"},
		SessionValidity: time.Hour,
	}

	content, err := contentstore.New(store, nil, store, logger, contentstore.Options{ChunkSize: chunkSize, CacheSize: 32})
	require.NoError(t, err)

	access := NewAccessService(nil, store, logger)
	return &env{
		store:       store,
		content:     content,
		users:       NewUserService(nil, store, cfg, logger),
		access:      access,
		entries:     NewEntryService(nil, store, content, access, nil, logger),
		collections: NewCollectionService(nil, store, access, logger),
		public:      NewPublicService(nil, store, content, logger),
	}
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.EnsureUser(context.Background(), email, email)
	require.NoError(t, err)
	return u
}

func (e *env) collection(t *testing.T, owner *models.User, name string) *models.Collection {
	t.Helper()
	c, err := e.collections.CreateCollection(context.Background(), owner, NewCollection{Name: name})
	require.NoError(t, err)
	return c
}

func (e *env) entry(t *testing.T, owner *models.User, key string, c models.Content, collectionID *int64) *models.Entry {
	t.Helper()
	en, err := e.entries.CreateEntry(context.Background(), owner, NewEntry{
		Key: key, Type: "text/plain", Content: c, CollectionID: collectionID,
	})
	require.NoError(t, err)
	return en
}

func ptr[T any](v T) *T { return &v }
