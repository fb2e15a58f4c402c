package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAccess_Precedence(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	bob := e.user(t, "b@example.com")
	root := e.user(t, "root@example.com")
	require.True(t, root.IsAdmin)

	c := e.collection(t, owner, "docs")
	inC := e.entry(t, owner, "k", models.Text("v"), &c.ID)

	check := func(u *models.User, rt models.ResourceType, id int64) models.AccessLevel {
		t.Helper()
		level, err := e.access.CheckAccess(ctx, u, rt, id)
		require.NoError(t, err)
		return level
	}

	assert.Equal(t, models.AccessAdmin, check(root, models.ResourceEntry, inC.ID), "global admin")
	assert.Equal(t, models.AccessAdmin, check(root, models.ResourceEntry, 9999), "admin wins before existence")
	assert.Equal(t, models.AccessNone, check(bob, models.ResourceEntry, 9999), "missing resource")
	assert.Equal(t, models.AccessNone, check(bob, models.ResourceEntry, inC.ID), "no grant")
	assert.Equal(t, models.AccessAdmin, check(owner, models.ResourceCollection, c.ID), "collection owner")
	assert.Equal(t, models.AccessAdmin, check(owner, models.ResourceEntry, inC.ID), "entry owner")

	_, err := e.access.GrantAccess(ctx, bob.ID, models.ResourceCollection, c.ID, models.AccessReadOnly)
	require.NoError(t, err)
	assert.Equal(t, models.AccessReadOnly, check(bob, models.ResourceEntry, inC.ID), "inherited from collection")

	_, err = e.access.GrantAccess(ctx, bob.ID, models.ResourceCollection, c.ID, models.AccessReadWrite)
	require.NoError(t, err)
	_, err = e.access.GrantAccess(ctx, bob.ID, models.ResourceEntry, inC.ID, models.AccessReadOnly)
	require.NoError(t, err)
	assert.Equal(t, models.AccessReadOnly, check(bob, models.ResourceEntry, inC.ID), "lower entry grant overrides")
	assert.Equal(t, models.AccessReadWrite, check(bob, models.ResourceCollection, c.ID))

	_, err = e.access.GrantAccess(ctx, bob.ID, models.ResourceEntry, inC.ID, models.AccessAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, check(bob, models.ResourceEntry, inC.ID), "higher entry grant overrides")
}

func TestCheckAccess_OwnershipSupersedesGrants(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	c := e.collection(t, owner, "docs")

	_, err := e.access.GrantAccess(ctx, owner.ID, models.ResourceCollection, c.ID, models.AccessReadOnly)
	require.NoError(t, err)

	level, err := e.access.CheckAccess(ctx, owner, models.ResourceCollection, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, level)
}

func TestCheckAccess_CollectionOwnerOwnsForeignEntries(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	bob := e.user(t, "b@example.com")
	c := e.collection(t, owner, "docs")

	_, err := e.access.GrantAccess(ctx, bob.ID, models.ResourceCollection, c.ID, models.AccessReadWrite)
	require.NoError(t, err)
	bobs := e.entry(t, bob, "from-bob", models.Text("x"), &c.ID)

	level, err := e.access.CheckAccess(ctx, owner, models.ResourceEntry, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, level)
}

func TestCheckAccess_RootEntryGrant(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	bob := e.user(t, "b@example.com")
	en := e.entry(t, owner, "k", models.Text("v"), nil)

	_, err := e.access.GrantAccess(ctx, bob.ID, models.ResourceEntry, en.ID, models.AccessReadWrite)
	require.NoError(t, err)

	level, err := e.access.CheckAccess(ctx, bob, models.ResourceEntry, en.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessReadWrite, level)
}

func TestRequireAccess(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	bob := e.user(t, "b@example.com")
	root := e.user(t, "root@example.com")
	c := e.collection(t, owner, "docs")

	_, err := e.access.RequireAccess(ctx, bob, models.ResourceCollection, c.ID, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorForbidden))

	_, err = e.access.RequireAccess(ctx, bob, models.ResourceCollection, 9999, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	_, err = e.access.RequireAccess(ctx, root, models.ResourceCollection, 9999, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	level, err := e.access.RequireAccess(ctx, owner, models.ResourceCollection, c.ID, models.AccessAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAdmin, level)

	_, err = e.access.RequireAccess(ctx, nil, models.ResourceCollection, c.ID, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))

	_, err = e.access.CheckAccess(ctx, bob, models.ResourceType("folder"), c.ID)
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

func TestGrantAccess_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	bob := e.user(t, "b@example.com")
	carol := e.user(t, "c@example.com")
	c := e.collection(t, owner, "docs")

	first, err := e.access.GrantAccess(ctx, bob.ID, models.ResourceCollection, c.ID, models.AccessReadOnly)
	require.NoError(t, err)
	_, err = e.access.GrantAccess(ctx, carol.ID, models.ResourceCollection, c.ID, models.AccessReadOnly)
	require.NoError(t, err)
	again, err := e.access.GrantAccess(ctx, bob.ID, models.ResourceCollection, c.ID, models.AccessAdmin)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	grants, err := e.access.ListAccess(ctx, models.ResourceCollection, c.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "c@example.com", grants[0].Email, "newest first")
	assert.Equal(t, "b@example.com", grants[1].Email)
	assert.Equal(t, models.AccessAdmin, grants[1].Level)

	require.NoError(t, e.access.RevokeAccess(ctx, bob.ID, models.ResourceCollection, c.ID))
	err = e.access.RevokeAccess(ctx, bob.ID, models.ResourceCollection, c.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	level, err := e.access.CheckAccess(ctx, bob, models.ResourceCollection, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessNone, level)
}

func TestGrantAccess_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	owner := e.user(t, "a@example.com")
	c := e.collection(t, owner, "docs")

	_, err := e.access.GrantAccess(ctx, owner.ID, models.ResourceCollection, c.ID, models.AccessNone)
	assert.True(t, errors.Is(err, common.ErrorValidation))

	_, err = e.access.GrantAccess(ctx, owner.ID, models.ResourceType("folder"), c.ID, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorValidation))

	_, err = e.access.GrantAccess(ctx, owner.ID, models.ResourceCollection, 9999, models.AccessReadOnly)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
