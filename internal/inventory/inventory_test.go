package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketcraft/internal/item"
)

func TestRemove_LeastIndexFirst(t *testing.T) {
	inv := New(4)
	require.NoError(t, inv.Set(0, item.New("gold", 3)))
	require.NoError(t, inv.Set(1, item.New("dirt", 10)))
	require.NoError(t, inv.Set(2, item.New("gold", 5)))

	removed := inv.Remove(item.New("gold", 1), 4)

	assert.Equal(t, 4, removed)
	assert.True(t, inv.Get(0).IsEmpty(), "first stack fully consumed")
	assert.Equal(t, 4, inv.Get(2).Amount)
	assert.Equal(t, 10, inv.Get(1).Amount)
}

func TestRemove_NotEnough(t *testing.T) {
	inv := New(2)
	require.NoError(t, inv.Set(1, item.New("gold", 2)))

	assert.Equal(t, 2, inv.Remove(item.New("gold", 1), 5))
	assert.Equal(t, 0, inv.Count(item.New("gold", 1)))
}

func TestAdd_TopsUpThenEmptySlot(t *testing.T) {
	inv := New(3)
	require.NoError(t, inv.Set(1, item.New("stone", 60)))

	left := inv.Add(item.New("stone", 10))

	assert.Equal(t, 0, left)
	assert.Equal(t, 64, inv.Get(1).Amount)
	assert.Equal(t, 6, inv.Get(0).Amount)
}

func TestAdd_ReportsLeftover(t *testing.T) {
	inv := New(1)
	require.NoError(t, inv.Set(0, item.New("dirt", 1)))

	assert.Equal(t, 5, inv.Add(item.New("stone", 5)))
	assert.Equal(t, -1, inv.FirstEmpty())
}

func TestSnapshotRoundTrip(t *testing.T) {
	inv := NewPlayer()
	require.NoError(t, inv.Set(7, item.New("emerald", 2)))

	restored, err := FromSnapshot(PlayerSize, inv.Snapshot())
	require.NoError(t, err)
	assert.True(t, inv.Equal(restored))

	_, err = FromSnapshot(2, map[int]item.Stack{5: item.New("emerald", 1)})
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	inv := New(2)
	require.NoError(t, inv.Set(0, item.New("gold", 3)))
	c := inv.Clone()
	c.Remove(item.New("gold", 1), 3)

	assert.Equal(t, 3, inv.Count(item.New("gold", 1)))
	assert.False(t, inv.Equal(c))
}
