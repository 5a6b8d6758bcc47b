package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_Replaces(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		owner := uuid.New()

		require.NoError(t, b.Put(ctx, KindShop, owner, "farm", []byte(`{"v":1}`)))
		require.NoError(t, b.Put(ctx, KindShop, owner, "farm", []byte(`{"v":2}`)))

		got, err := b.Get(ctx, KindShop, owner, "farm")
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(got))
	})
}

func TestPut_KindsAndOwnersAreIsolated(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		alice, bob := uuid.New(), uuid.New()

		require.NoError(t, b.Put(ctx, KindShop, alice, "farm", []byte(`"shop"`)))
		require.NoError(t, b.Put(ctx, KindVault, alice, "farm", []byte(`"vault"`)))
		require.NoError(t, b.Put(ctx, KindShop, bob, "farm", []byte(`"bob"`)))

		got, err := b.Get(ctx, KindVault, alice, "farm")
		require.NoError(t, err)
		assert.Equal(t, `"vault"`, string(got))

		got, err = b.Get(ctx, KindShop, bob, "farm")
		require.NoError(t, err)
		assert.Equal(t, `"bob"`, string(got))
	})
}

func TestDelete(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		owner := uuid.New()

		existed, err := b.Delete(ctx, KindShop, owner, "farm")
		require.NoError(t, err)
		assert.False(t, existed)

		require.NoError(t, b.Put(ctx, KindShop, owner, "farm", []byte(`{}`)))
		existed, err = b.Delete(ctx, KindShop, owner, "farm")
		require.NoError(t, err)
		assert.True(t, existed)

		_, err = b.Get(ctx, KindShop, owner, "farm")
		assert.ErrorIs(t, err, ErrNotFound)

		owners, err := b.Owners(ctx, KindShop)
		require.NoError(t, err)
		assert.Empty(t, owners, "an owner with no records is not listed")
	})
}

func TestPutBatch_StoresEveryWrite(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		alice, bob := uuid.New(), uuid.New()

		require.NoError(t, b.PutBatch(ctx, []Write{
			{Kind: KindVault, Owner: alice, Name: "farm", Data: []byte(`"vault"`)},
			{Kind: KindInventory, Owner: bob, Name: "main", Data: []byte(`"inv"`)},
		}))

		got, err := b.Get(ctx, KindVault, alice, "farm")
		require.NoError(t, err)
		assert.Equal(t, `"vault"`, string(got))

		got, err = b.Get(ctx, KindInventory, bob, "main")
		require.NoError(t, err)
		assert.Equal(t, `"inv"`, string(got))
	})
}

func TestPutBatch_FailureWritesNothing(t *testing.T) {
	eachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		owner := uuid.New()
		require.NoError(t, b.Put(ctx, KindVault, owner, "farm", []byte(`"before"`)))

		err := b.PutBatch(ctx, []Write{
			{Kind: KindVault, Owner: owner, Name: "farm", Data: []byte(`"after"`)},
			{Kind: KindInventory, Owner: owner, Name: "", Data: []byte(`"inv"`)},
		})
		require.ErrorIs(t, err, ErrNameRequired)

		got, err := b.Get(ctx, KindVault, owner, "farm")
		require.NoError(t, err)
		assert.Equal(t, `"before"`, string(got), "earlier writes of a failed batch are rolled back")

		names, err := b.List(ctx, KindInventory, owner)
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestPutBatch_BumpsRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, s.Put(ctx, KindVault, owner, "farm", []byte(`1`)))
	require.NoError(t, s.PutBatch(ctx, []Write{{Kind: KindVault, Owner: owner, Name: "farm", Data: []byte(`2`)}}))

	rev, err := s.Revision(ctx, KindVault, owner, "farm")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}
