package objectstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValuePrefix(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

	a := NewValuePrefix(now)
	b := NewValuePrefix(now)

	re := regexp.MustCompile(`^values/2025/3/14/[0-9a-f-]{36}$`)
	assert.Regexp(t, re, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a+"/7", PartKey(a, 7))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte("part")
	require.NoError(t, m.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("part"), got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err = m.Get(ctx, "k")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
