package market

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/testutil"
	"github.com/roach88/marketcraft/internal/vault"
)

func TestCreateShop(t *testing.T) {
	f := newFixture(t)

	shop := f.shop("  farm ")
	assert.Equal(t, "farm", shop.Name)
	assert.Equal(t, f.alice.ID, shop.Owner)
	assert.True(t, shop.Tradeable())
	assert.Equal(t, testutil.Epoch, shop.CreatedAt)
	assert.Equal(t, "Shop 'farm' setup confirmed!", f.rec.Last(f.alice.ID))

	vaults, err := f.svc.ListVaults(f.ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"farm"}, vaults, "a new shop gets an empty vault")
}

func TestCreateShop_Reconfigure(t *testing.T) {
	f := newFixture(t)
	first := f.shop("farm")
	f.stock(f.alice.ID, "farm", vault.Slots{0: emerald.WithAmount(5)})

	gold := item.New("GOLD_INGOT", 2)
	updated, err := f.svc.CreateShop(f.ctx, f.alice.ID, "farm", emerald, gold)
	require.NoError(t, err)
	assert.Equal(t, gold, updated.Required)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, 5, f.vaultCount(f.alice.ID, "farm", vault.Selling, emerald), "reconfiguring keeps the vault")
}

func TestCreateShop_ReconfigureWhileOpen(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	view, err := f.svc.OpenShop(f.ctx, f.bob.ID, f.alice.ID, "farm")
	require.NoError(t, err)
	defer view.Close()

	_, err = f.svc.CreateShop(f.ctx, f.alice.ID, "farm", emerald, item.New("GOLD_INGOT", 1))
	assert.True(t, IsCode(err, CodeInUse))
	assert.Equal(t, "Cannot modify shop 'farm' as its vault is currently locked.", f.rec.Last(f.alice.ID))
}

func TestCreateShop_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateShop(f.ctx, f.alice.ID, "farm", emerald, item.Stack{})
	assert.True(t, IsCode(err, CodeInvalidShop))
	assert.Equal(t, "Please place items in both the 'item to sell' and 'item to charge' slots.", f.rec.Last(f.alice.ID))

	_, err = f.svc.CreateShop(f.ctx, f.alice.ID, "a/b", emerald, diamond)
	assert.True(t, IsCode(err, CodeInvalidShop))

	_, err = f.svc.CreateShop(f.ctx, f.alice.ID, "farm", item.New("EMERALD", 65), diamond)
	assert.True(t, IsCode(err, CodeInvalidShop))

	shops, err := f.svc.ListShops(f.ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, shops)
}

func TestCreateShop_Limit(t *testing.T) {
	f := newFixtureWithLimits(t, config.Limits{Shops: 2, Signs: 1})
	f.shop("a")
	f.shop("b")

	_, err := f.svc.CreateShop(f.ctx, f.alice.ID, "c", emerald, diamond)
	assert.True(t, IsCode(err, CodeShopLimit))
	assert.Equal(t, "You have reached your limit of shops.", f.rec.Last(f.alice.ID))

	_, err = f.svc.CreateShop(f.ctx, f.alice.ID, "a", emerald, item.New("STONE", 1))
	assert.NoError(t, err, "reconfiguring does not count against the limit")
}

func TestListShops(t *testing.T) {
	f := newFixture(t)
	f.shop("b")
	f.shop("a")

	shops, err := f.svc.ListShops(f.ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, shops, 2)
	assert.Equal(t, "a", shops[0].Name)
	assert.Equal(t, "b", shops[1].Name)

	shops, err = f.svc.ListShops(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, shops)

	_, err = f.svc.Shop(f.ctx, f.alice.ID, "missing")
	assert.True(t, IsCode(err, CodeShopNotFound))
}

func TestAllShops(t *testing.T) {
	f := newFixture(t)

	shops, err := f.svc.AllShops(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, shops)

	f.shop("gems")
	_, err = f.svc.CreateShop(f.ctx, f.bob.ID, "wool", item.New("WOOL", 4), emerald)
	require.NoError(t, err)

	shops, err = f.svc.AllShops(f.ctx)
	require.NoError(t, err)
	require.Len(t, shops, 2)
	owners := map[string]uuid.UUID{shops[0].Name: shops[0].Owner, shops[1].Name: shops[1].Owner}
	assert.Equal(t, map[string]uuid.UUID{"gems": f.alice.ID, "wool": f.bob.ID}, owners)
}

func TestRemoveShop(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")

	r, err := f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	require.NoError(t, err)
	assert.Equal(t, Removal{Shop: true, Vault: true}, r)
	assert.Equal(t, []string{
		"Shop 'farm' setup confirmed!",
		"Removed shop 'farm'.",
		"Removed associated vault for shop 'farm'.",
	}, f.rec.For(f.alice.ID))

	_, err = f.svc.Shop(f.ctx, f.alice.ID, "farm")
	assert.True(t, IsCode(err, CodeShopNotFound))
}

func TestRemoveShop_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	assert.True(t, IsCode(err, CodeShopNotFound))
	assert.Equal(t, "You do not have a shop by this name.", f.rec.Last(f.alice.ID))
}

func TestRemoveShop_VaultNotEmpty(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	f.stock(f.alice.ID, "farm", vault.Slots{5: diamond.WithAmount(1)})

	_, err := f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	assert.True(t, IsCode(err, CodeVaultNotEmpty))
	assert.Equal(t, "Cannot remove shop 'farm' as its vault is not empty.", f.rec.Last(f.alice.ID))
}

func TestRemoveShop_EmptinessCheckedBeforeLocks(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	f.stock(f.alice.ID, "farm", vault.Slots{0: emerald.WithAmount(1)})
	view, err := f.svc.OpenShop(f.ctx, f.bob.ID, f.alice.ID, "farm")
	require.NoError(t, err)
	defer view.Close()

	_, err = f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	assert.True(t, IsCode(err, CodeVaultNotEmpty))
}

func TestRemoveShop_Locked(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	view, err := f.svc.OpenShop(f.ctx, f.bob.ID, f.alice.ID, "farm")
	require.NoError(t, err)

	_, err = f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	assert.True(t, IsCode(err, CodeInUse))
	assert.Equal(t, "Cannot remove shop 'farm' as its vault is currently locked.", f.rec.Last(f.alice.ID))

	view.Close()
	_, err = f.svc.RemoveShop(f.ctx, f.alice.ID, "farm")
	assert.NoError(t, err)
}

func TestAdminRemoveShop(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	f.stock(f.alice.ID, "farm", vault.Slots{0: emerald.WithAmount(3)})

	r, err := f.svc.AdminRemoveShop(f.ctx, f.admin.ID, "alice", "farm")
	require.NoError(t, err)
	assert.Equal(t, Removal{Shop: true, Vault: true}, r, "admins skip the empty vault check")
	assert.Equal(t, "Removed associated vault for shop 'farm'.", f.rec.Last(f.admin.ID))
}

func TestAdminRemoveShop_Refusals(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")

	_, err := f.svc.AdminRemoveShop(f.ctx, f.bob.ID, "Alice", "farm")
	assert.True(t, IsCode(err, CodeNotAdmin))
	assert.Equal(t, "You don't have permission to run this command.", f.rec.Last(f.bob.ID))

	_, err = f.svc.AdminRemoveShop(f.ctx, f.admin.ID, "Ghost", "farm")
	assert.True(t, IsCode(err, CodeUnknownPlayer))

	_, err = f.svc.AdminRemoveShop(f.ctx, f.admin.ID, "Alice", "nope")
	assert.True(t, IsCode(err, CodeShopNotFound))
	assert.Equal(t, "No shop 'nope' found.", f.rec.Last(f.admin.ID))

	vv, err := f.svc.OpenVault(f.ctx, f.alice.ID, "farm")
	require.NoError(t, err)
	_, err = f.svc.AdminRemoveShop(f.ctx, f.admin.ID, "Alice", "farm")
	assert.True(t, IsCode(err, CodeInUse))
	assert.Equal(t, "Cannot remove shop 'farm' as its shop is currently locked.", f.rec.Last(f.admin.ID))
	require.NoError(t, vv.Close(f.ctx))
}

func TestStock(t *testing.T) {
	f := newFixture(t)
	f.shop("farm")
	f.stock(f.alice.ID, "farm", vault.Slots{
		0: emerald.WithAmount(10),
		1: emerald.WithAmount(4),
		5: emerald.WithAmount(30),
	})

	n, err := f.svc.Stock(f.ctx, f.alice.ID, "farm")
	require.NoError(t, err)
	assert.Equal(t, 14, n, "only the selling partition counts")
}
