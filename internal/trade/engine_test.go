package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/vault"
)

type testBuyer struct {
	id  uuid.UUID
	inv *inventory.Inventory
}

func (b *testBuyer) ID() uuid.UUID                    { return b.id }
func (b *testBuyer) Inventory() *inventory.Inventory  { return b.inv }
func (b *testBuyer) Replace(inv *inventory.Inventory) { b.inv = inv }

type testVault struct {
	slots   vault.Slots
	saves   int
	saveErr error
}

func (v *testVault) Load(context.Context) (vault.Slots, error) {
	return v.slots.Clone(), nil
}

func (v *testVault) Save(_ context.Context, s vault.Slots) error {
	if v.saveErr != nil {
		return v.saveErr
	}
	v.saves++
	v.slots = s.Clone()
	return nil
}

// testCommitter stores the vault and the buyer's inventory together.
type testCommitter struct {
	testVault
	buyer     uuid.UUID
	inv       *inventory.Inventory
	commitErr error
}

func (c *testCommitter) Commit(_ context.Context, buyer uuid.UUID, s vault.Slots, inv *inventory.Inventory) error {
	if c.commitErr != nil {
		return c.commitErr
	}
	c.buyer = buyer
	c.slots = s.Clone()
	c.inv = inv.Clone()
	return nil
}

type testDisplay struct {
	shown []int
}

func (d *testDisplay) ShowStock(n int) { d.shown = append(d.shown, n) }

func newBuyer(t *testing.T, stacks ...item.Stack) *testBuyer {
	t.Helper()
	inv := inventory.NewPlayer()
	for _, s := range stacks {
		require.Zero(t, inv.Add(s))
	}
	return &testBuyer{id: uuid.New(), inv: inv}
}

func fillInventory(t *testing.T, b *testBuyer, filler item.Stack) {
	t.Helper()
	for slot := b.inv.FirstEmpty(); slot != -1; slot = b.inv.FirstEmpty() {
		require.NoError(t, b.inv.Set(slot, filler))
	}
}

var (
	x = item.New("EMERALD", 1)
	y = item.New("DIAMOND", 1)
)

func TestPurchase_Success(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	v := &testVault{slots: vault.Slots{0: x.WithAmount(10)}}
	d := &testDisplay{}

	r, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, d)
	require.NoError(t, err)

	assert.Equal(t, 4, buyer.inv.Count(y))
	assert.Equal(t, 1, buyer.inv.Count(x))
	l := vault.DefaultLayout()
	assert.Equal(t, 9, v.slots.Count(l, vault.Selling, x))
	assert.Equal(t, 1, v.slots.Count(l, vault.Buying, y))
	assert.Equal(t, []int{9}, d.shown)
	assert.Equal(t, 9, r.StockLeft)
	assert.Equal(t, buyer.id, r.Buyer)
	assert.Equal(t, 1, v.saves)
}

func TestPurchase_PaymentLandsInFirstBuyingSlot(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(3))
	v := &testVault{slots: vault.Slots{0: x.WithAmount(2)}}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y.WithAmount(2)}, v, nil)
	require.NoError(t, err)

	assert.Equal(t, y.WithAmount(2), v.slots[5])
	assert.Equal(t, x.WithAmount(1), v.slots[0])
}

func TestPurchase_RejectionOrder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (*testBuyer, *testVault)
		code  RejectionCode
	}{
		{
			name: "insufficient stock wins over everything",
			setup: func(t *testing.T) (*testBuyer, *testVault) {
				b := newBuyer(t)
				fillInventory(t, b, item.New("DIRT", 64))
				return b, &testVault{slots: fullBuying(item.New("STONE", 64))}
			},
			code: CodeInsufficientStock,
		},
		{
			name: "vault full before funds",
			setup: func(t *testing.T) (*testBuyer, *testVault) {
				b := newBuyer(t)
				slots := fullBuying(item.New("STONE", 64))
				slots[0] = x.WithAmount(10)
				return b, &testVault{slots: slots}
			},
			code: CodeVaultFull,
		},
		{
			name: "funds before inventory space",
			setup: func(t *testing.T) (*testBuyer, *testVault) {
				b := newBuyer(t)
				fillInventory(t, b, item.New("DIRT", 64))
				return b, &testVault{slots: vault.Slots{0: x.WithAmount(10)}}
			},
			code: CodeInsufficientFunds,
		},
		{
			name: "inventory full",
			setup: func(t *testing.T) (*testBuyer, *testVault) {
				b := newBuyer(t, y.WithAmount(5))
				fillInventory(t, b, item.New("DIRT", 64))
				return b, &testVault{slots: vault.Slots{0: x.WithAmount(10)}}
			},
			code: CodeInventoryFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buyer, v := tt.setup(t)
			before := buyer.inv.Clone()
			vaultBefore := v.slots.Clone()
			d := &testDisplay{}

			_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, d)
			require.Error(t, err)
			assert.True(t, IsRejection(err))
			assert.Equal(t, tt.code, RejectionCodeOf(err))

			var rej *Rejection
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, messages[tt.code], rej.Message)

			assert.True(t, before.Equal(buyer.inv), "buyer inventory must be untouched")
			assert.Equal(t, vaultBefore, v.slots, "vault must be untouched")
			assert.Zero(t, v.saves)
			assert.Empty(t, d.shown)
		})
	}
}

func TestPurchase_VaultAcceptsByToppingUp(t *testing.T) {
	slots := fullBuying(item.New("STONE", 64))
	slots[5] = y.WithAmount(63)
	slots[0] = x.WithAmount(1)
	v := &testVault{slots: slots}
	buyer := newBuyer(t, y.WithAmount(1))

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, nil)
	require.NoError(t, err)
	assert.Equal(t, 64, v.slots[5].Amount)
	_, stillStocked := v.slots[0]
	assert.False(t, stillStocked, "a fully consumed stack leaves an empty slot")
}

func TestPurchase_BuyerSpaceFreedByPaymentIsNotEnough(t *testing.T) {
	// The payment stack would vacate a slot, but the check runs before any debit.
	buyer := newBuyer(t)
	fillInventory(t, buyer, item.New("DIRT", 64))
	require.NoError(t, buyer.inv.Set(0, y.WithAmount(1)))
	v := &testVault{slots: vault.Slots{0: x.WithAmount(10)}}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, nil)
	assert.Equal(t, CodeInventoryFull, RejectionCodeOf(err))
}

func TestPurchase_StockIgnoresBuyingPartition(t *testing.T) {
	// Offered items sitting in the buying partition are not for sale.
	v := &testVault{slots: vault.Slots{5: x.WithAmount(10)}}
	buyer := newBuyer(t, y.WithAmount(5))

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, nil)
	assert.Equal(t, CodeInsufficientStock, RejectionCodeOf(err))
}

func TestPurchase_MetadataMustMatch(t *testing.T) {
	named := y.WithAmount(5)
	named.Meta = []byte(`{"name":"Lucky"}`)
	buyer := newBuyer(t, named)
	v := &testVault{slots: vault.Slots{0: x.WithAmount(10)}}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, nil)
	assert.Equal(t, CodeInsufficientFunds, RejectionCodeOf(err))
}

func TestPurchase_SaveFailureLeavesBuyerUntouched(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	before := buyer.inv.Clone()
	boom := errors.New("disk full")
	v := &testVault{slots: vault.Slots{0: x.WithAmount(10)}, saveErr: boom}
	d := &testDisplay{}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, d)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsRejection(err))
	assert.True(t, before.Equal(buyer.inv))
	assert.Equal(t, 10, v.slots.Count(vault.DefaultLayout(), vault.Selling, x))
	assert.Empty(t, d.shown)
}

func TestPurchase_CommitsBothSidesTogether(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	c := &testCommitter{testVault: testVault{slots: vault.Slots{0: x.WithAmount(10)}}}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, c, nil)
	require.NoError(t, err)

	assert.Zero(t, c.saves, "a committer is never saved separately")
	assert.Equal(t, buyer.id, c.buyer)
	assert.Equal(t, 9, c.slots.Count(vault.DefaultLayout(), vault.Selling, x))
	require.NotNil(t, c.inv)
	assert.True(t, c.inv.Equal(buyer.inv))
	assert.Equal(t, 1, c.inv.Count(x))
	assert.Equal(t, 4, c.inv.Count(y))
}

func TestPurchase_CommitFailureLeavesBothSidesUntouched(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	before := buyer.inv.Clone()
	boom := errors.New("disk full")
	c := &testCommitter{
		testVault: testVault{slots: vault.Slots{0: x.WithAmount(10)}},
		commitErr: boom,
	}
	d := &testDisplay{}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, c, d)
	require.ErrorIs(t, err, boom)
	assert.False(t, IsRejection(err))
	assert.True(t, before.Equal(buyer.inv))
	assert.Equal(t, 10, c.slots.Count(vault.DefaultLayout(), vault.Selling, x))
	assert.Zero(t, c.slots.Count(vault.DefaultLayout(), vault.Buying, y))
	assert.Nil(t, c.inv)
	assert.Empty(t, d.shown)
}

func TestPurchase_NotTradeable(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	v := &testVault{slots: vault.Slots{0: x.WithAmount(10)}}

	_, err := New().Purchase(context.Background(), buyer, Offer{Offered: x}, v, nil)
	assert.Equal(t, CodeNotTradeable, RejectionCodeOf(err))
}

func TestPurchase_Repeated(t *testing.T) {
	buyer := newBuyer(t, y.WithAmount(5))
	v := &testVault{slots: vault.Slots{0: x.WithAmount(3)}}
	d := &testDisplay{}
	e := New()

	for i := 0; i < 3; i++ {
		_, err := e.Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, d)
		require.NoError(t, err)
	}
	_, err := e.Purchase(context.Background(), buyer, Offer{Offered: x, Required: y}, v, d)
	assert.Equal(t, CodeInsufficientStock, RejectionCodeOf(err))

	assert.Equal(t, []int{2, 1, 0}, d.shown)
	assert.Equal(t, 3, buyer.inv.Count(x))
	assert.Equal(t, 2, buyer.inv.Count(y))
	assert.Equal(t, 3, v.slots.Count(vault.DefaultLayout(), vault.Buying, y))
}

func TestStockFunc(t *testing.T) {
	var got int
	StockFunc(func(n int) { got = n }).ShowStock(7)
	assert.Equal(t, 7, got)
}

func fullBuying(filler item.Stack) vault.Slots {
	s := vault.Slots{}
	for _, slot := range vault.DefaultLayout().Buying {
		s[slot] = filler
	}
	return s
}
