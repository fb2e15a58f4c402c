package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)

	u, err := e.users.EnsureUser(ctx, "  Alice@Example.com ", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsAdmin)

	again, err := e.users.EnsureUser(ctx, "alice@example.com", "Alice B.")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Alice B.", again.DisplayName)

	root, err := e.users.EnsureUser(ctx, "ROOT@example.com", "Root")
	require.NoError(t, err)
	assert.True(t, root.IsAdmin)

	_, err = e.users.EnsureUser(ctx, " ", "nobody")
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

func TestSetAdmin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	u := e.user(t, "a@example.com")

	require.NoError(t, e.users.SetAdmin(ctx, u.ID, true))

	// a later login does not lower the flag
	u, err := e.users.EnsureUser(ctx, "a@example.com", "A")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	require.NoError(t, e.users.SetAdmin(ctx, u.ID, false))
	got, err := e.users.GetUserByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)

	assert.True(t, errors.Is(e.users.SetAdmin(ctx, 9999, true), common.ErrorNotFound))
}

func TestDeleteUser_Cascades(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	a := e.user(t, "a@example.com")
	c := e.collection(t, a, "docs")
	en := e.entry(t, a, "k", models.Text("v"), nil)
	sess, err := e.users.CreateSession(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, e.users.DeleteUser(ctx, a.ID))

	_, err = e.users.GetUser(ctx, a.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
	_, err = e.store.Collections(nil).GetByID(ctx, c.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
	_, err = e.store.Entries(nil).GetByID(ctx, en.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
	_, err = e.users.ResolveSession(ctx, sess.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))

	users, err := e.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	a := e.user(t, "a@example.com")

	sess, err := e.users.CreateSession(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, sess.Token, 2*common.SessionTokenSize)

	u, err := e.users.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, u.ID)

	_, err = e.users.ResolveSession(ctx, "unknown")
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))

	require.NoError(t, e.users.DeleteSession(ctx, sess.Token))
	_, err = e.users.ResolveSession(ctx, sess.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
}

func TestSessions_Expiry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 64)
	a := e.user(t, "a@example.com")

	expired, err := e.users.CreateSession(ctx, a.ID)
	require.NoError(t, err)
	stale, err := e.users.CreateSession(ctx, a.ID)
	require.NoError(t, err)

	e.users.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = e.users.ResolveSession(ctx, expired.Token)
	assert.True(t, errors.Is(err, common.ErrSessionExpired))

	fresh, err := e.users.CreateSession(ctx, a.ID)
	require.NoError(t, err)

	n, err := e.users.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the stale session is left to purge")

	_, err = e.users.ResolveSession(ctx, stale.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
	_, err = e.users.ResolveSession(ctx, fresh.Token)
	require.NoError(t, err)
}
