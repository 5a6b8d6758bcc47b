package market

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/identity"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/notify"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/testutil"
	"github.com/roach88/marketcraft/internal/vault"
)

var (
	emerald = item.New("EMERALD", 1)
	diamond = item.New("DIAMOND", 1)
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	svc     *Service
	rec     *notify.Recorder
	backend *flakyBackend
	alice   identity.Player
	bob     identity.Player
	admin   identity.Player
}

// flakyBackend fails writes of one record kind on demand.
type flakyBackend struct {
	store.Backend
	failKind store.Kind
}

func (b *flakyBackend) Put(ctx context.Context, kind store.Kind, owner uuid.UUID, name string, data []byte) error {
	if kind == b.failKind {
		return errors.New("disk full")
	}
	return b.Backend.Put(ctx, kind, owner, name, data)
}

func (b *flakyBackend) PutBatch(ctx context.Context, writes []store.Write) error {
	for _, w := range writes {
		if w.Kind == b.failKind {
			return errors.New("disk full")
		}
	}
	return b.Backend.PutBatch(ctx, writes)
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLimits(t, config.Limits{Shops: 10, Signs: 10})
}

func newFixtureWithLimits(t *testing.T, limits config.Limits) *fixture {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	backend := &flakyBackend{Backend: s}
	rec := notify.NewRecorder()
	svc := New(backend, limits,
		WithSink(rec),
		WithGenerator(testutil.NewSequentialIDs()),
		WithClock(testutil.NewDeterministicClock()),
	)

	f := &fixture{t: t, ctx: context.Background(), svc: svc, rec: rec, backend: backend}
	f.alice = f.register("Alice", false)
	f.bob = f.register("Bob", false)
	f.admin = f.register("Op", true)
	return f
}

func (f *fixture) register(name string, admin bool) identity.Player {
	f.t.Helper()
	p, err := f.svc.Players().Register(f.ctx, name, admin)
	require.NoError(f.t, err)
	return p
}

// shop creates a shop owned by alice selling one emerald for one diamond.
func (f *fixture) shop(name string) Shop {
	f.t.Helper()
	shop, err := f.svc.CreateShop(f.ctx, f.alice.ID, name, emerald, diamond)
	require.NoError(f.t, err)
	return shop
}

func (f *fixture) give(player uuid.UUID, st item.Stack) {
	f.t.Helper()
	left, err := f.svc.Give(f.ctx, player, st)
	require.NoError(f.t, err)
	require.Zero(f.t, left)
}

// stock writes slots straight to the stored vault.
func (f *fixture) stock(owner uuid.UUID, shop string, slots vault.Slots) {
	f.t.Helper()
	require.NoError(f.t, f.svc.vault(owner, shop).Save(f.ctx, slots))
}

func (f *fixture) count(player uuid.UUID, st item.Stack) int {
	f.t.Helper()
	inv, err := f.svc.Inventory(f.ctx, player)
	require.NoError(f.t, err)
	return inv.Count(st)
}

func (f *fixture) vaultCount(owner uuid.UUID, shop string, p vault.Partition, st item.Stack) int {
	f.t.Helper()
	slots, err := f.svc.Vault(f.ctx, owner, shop)
	require.NoError(f.t, err)
	return slots.Count(f.svc.Layout(), p, st)
}
