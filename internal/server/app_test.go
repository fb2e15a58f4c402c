package server

import (
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/objectstore"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.ChunkSize = 8
	return c
}

func TestBuild_WiresServices(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	store := memory.NewStore()
	objects := objectstore.NewMemory()

	app, err := build(c, logging.NewDiscardLogger(), nil, store, store, objects)
	require.NoError(t, err)
	defer app.Close()

	u, err := app.Users.EnsureUser(ctx, "a@example.com", "A")
	require.NoError(t, err)

	en, err := app.Entries.CreateEntry(ctx, u, services.NewEntry{
		Key: "notes", Type: "text/plain", Content: models.Text("more than eight bytes"),
	})
	require.NoError(t, err)
	assert.True(t, en.IsMultipart)
	assert.Equal(t, 3, objects.Len())

	_, rc, err := app.Public.OpenEntryBySecret(ctx, "notes", en.Secret)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "more than eight bytes", string(data))
}

func TestBuild_BadChunkSize(t *testing.T) {
	c := testConfig()
	c.ChunkSize = 0
	store := memory.NewStore()

	_, err := build(c, logging.NewDiscardLogger(), nil, store, store, nil)
	require.Error(t, err)
}

func TestMigrate_NeedsDatabase(t *testing.T) {
	store := memory.NewStore()
	app, err := build(testConfig(), logging.NewDiscardLogger(), nil, store, store, nil)
	require.NoError(t, err)

	require.Error(t, app.Migrate(context.Background()))
	require.NoError(t, app.Close())
}

func TestNewObjectStore(t *testing.T) {
	ctx := context.Background()
	c := testConfig()

	s, err := newObjectStore(ctx, c)
	require.NoError(t, err)
	assert.Nil(t, s)

	c.PartStorage = config.PartStorageS3
	s, err = newObjectStore(ctx, c)
	require.NoError(t, err)
	assert.IsType(t, &objectstore.S3{}, s)
}
