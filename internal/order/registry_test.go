package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vileopratama/vitech/pkg/types"
)

func testRegistry(t *testing.T) (*Registry, *Session, *Catalog) {
	t.Helper()
	c := testCatalog(t)
	session := NewSession(1, 7, 3)
	r := NewRegistry(func() *Order { return NewOrder(session, c, nil) })
	return r, session, c
}

func TestRegistry_StartsWithOneOrder(t *testing.T) {
	r, _, _ := testRegistry(t)
	assert.Equal(t, 1, r.Len())
	assert.NotNil(t, r.Selected())
}

func TestRegistry_AddSelectRemove(t *testing.T) {
	r, session, c := testRegistry(t)
	first := r.Selected()

	second := NewOrder(session, c, nil)
	r.Add(second)
	assert.Equal(t, second.UID(), r.Selected().UID(), "adding selects the new order")

	require.NoError(t, r.Select(first.UID()))
	assert.Equal(t, first.UID(), r.Selected().UID())

	got, err := r.Get(second.UID())
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, r.Remove(first.UID()))
	assert.Equal(t, second.UID(), r.Selected().UID(), "removing the selected order moves selection")
	assert.Equal(t, 1, r.Len())

	assert.ErrorIs(t, r.Remove(first.UID()), types.ErrNotFound)
	_, err = r.Get(first.UID())
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, r.Select("nope"), types.ErrNotFound)
}

func TestRegistry_NeverEmpty(t *testing.T) {
	r, _, _ := testRegistry(t)
	only := r.Selected()

	require.NoError(t, r.Remove(only.UID()))
	assert.Equal(t, 1, r.Len(), "removing the last order spawns a fresh one")
	assert.NotEqual(t, only.UID(), r.Selected().UID())
}
