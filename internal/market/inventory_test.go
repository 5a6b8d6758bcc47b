package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
)

func TestInventory_StartsEmpty(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Inventory(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.PlayerSize, inv.Size())
	assert.Empty(t, inv.Occupied())
}

func TestGive_SplitsStacks(t *testing.T) {
	f := newFixture(t)

	left, err := f.svc.Give(f.ctx, f.bob.ID, diamond.WithAmount(100))
	require.NoError(t, err)
	assert.Zero(t, left)

	inv, err := f.svc.Inventory(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, inv.Occupied())
	assert.Equal(t, 64, inv.Get(0).Amount)
	assert.Equal(t, 36, inv.Get(1).Amount)

	_, err = f.svc.Give(f.ctx, f.bob.ID, item.Stack{})
	assert.Error(t, err)
}

func TestGive_Overflow(t *testing.T) {
	f := newFixture(t)
	left, err := f.svc.Give(f.ctx, f.bob.ID, item.New("DIRT", 64*inventory.PlayerSize+5))
	require.NoError(t, err)
	assert.Equal(t, 5, left)
}

func TestSaveInventory(t *testing.T) {
	f := newFixture(t)
	inv := inventory.NewPlayer()
	require.NoError(t, inv.Set(3, emerald.WithAmount(9)))
	require.NoError(t, f.svc.SaveInventory(f.ctx, f.bob.ID, inv))

	got, err := f.svc.Inventory(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, inv.Equal(got))
}
