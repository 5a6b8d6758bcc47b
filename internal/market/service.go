// Package market is the MarketCraft application service.
//
// It wires the record store, lock registries, access coordinator, trade
// engine, player directory and notification sink into the operations players
// perform: setting up shops, stocking vaults, buying, linking signs and the
// administrator overrides.
//
// Every mutating operation runs under a single service mutex, the same
// one-operation-at-a-time model as a game server's main thread. Lock
// registries then carry the cross-operation state: a shop view open for a
// buyer keeps the vault locked until the view is closed.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/access"
	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/identity"
	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/lockreg"
	"github.com/roach88/marketcraft/internal/notify"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/trade"
	"github.com/roach88/marketcraft/internal/vault"
)

// Clock supplies timestamps for shop records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service implements the market operations.
type Service struct {
	mu sync.Mutex

	limits  config.Limits
	backend store.Backend
	shops   *store.Records[Shop]
	vaults  *store.Records[vault.Slots]
	signs   *store.Records[SignLink]
	invs    *store.Records[inventoryRecord]
	players *identity.Directory

	coord  *access.Coordinator
	engine *trade.Engine
	layout vault.Layout

	sink   notify.Sink
	clock  Clock
	gen    identity.Generator
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service and its components.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSink sets where player messages are delivered.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock sets the timestamp source.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithGenerator sets the id generator for new players.
func WithGenerator(g identity.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// New creates a service over backend.
func New(backend store.Backend, limits config.Limits, opts ...Option) *Service {
	s := &Service{
		limits:  limits,
		backend: backend,
		layout: vault.DefaultLayout(),
		sink:   notify.Discard,
		clock:  systemClock{},
		gen:    identity.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shops = store.NewRecords[Shop](backend, store.KindShop)
	s.vaults = store.NewRecords[vault.Slots](backend, store.KindVault)
	s.signs = store.NewRecords[SignLink](backend, store.KindSign)
	s.invs = store.NewRecords[inventoryRecord](backend, store.KindInventory)
	s.players = identity.NewDirectory(backend,
		identity.WithGenerator(s.gen),
		identity.WithLogger(s.logger),
	)
	s.coord = access.New(
		lockreg.New(lockreg.KindShop, lockreg.WithLogger(s.logger)),
		lockreg.New(lockreg.KindVault, lockreg.WithLogger(s.logger)),
		access.WithLogger(s.logger),
	)
	s.engine = trade.New(trade.WithLogger(s.logger), trade.WithLayout(s.layout))
	return s
}

// Players returns the player directory.
func (s *Service) Players() *identity.Directory {
	return s.players
}

// Access returns the access coordinator, for diagnostics.
func (s *Service) Access() *access.Coordinator {
	return s.coord
}

// Layout returns the vault layout.
func (s *Service) Layout() vault.Layout {
	return s.layout
}

func (s *Service) tell(actor uuid.UUID, format string, args ...any) {
	s.sink.Notify(actor, fmt.Sprintf(format, args...))
}

// refused notifies the actor of a refusal and returns it.
func (s *Service) refused(actor uuid.UUID, err *Error) error {
	s.logger.Debug("operation refused", "actor", actor, "code", err.Code)
	s.sink.Notify(actor, err.Message)
	return err
}

// failed logs an internal failure as a warning, tells the actor something
// went wrong and returns the error.
func (s *Service) failed(actor uuid.UUID, op string, err error) error {
	s.logger.Warn(op+" failed", "actor", actor, "error", err)
	s.sink.Notify(actor, msgUnexpected)
	return fmt.Errorf("%s: %w", op, err)
}

// requireAdmin refuses non-administrators.
func (s *Service) requireAdmin(ctx context.Context, actor uuid.UUID) error {
	p, err := s.players.ByID(ctx, actor)
	if err != nil && !errors.Is(err, identity.ErrUnknownPlayer) {
		return s.failed(actor, "check admin", err)
	}
	if err != nil || !p.Admin {
		return s.refused(actor, refuse(CodeNotAdmin, msgNoPermission))
	}
	return nil
}

// vaultAccessor reads and writes one shop's vault record. Commit writes the
// vault together with a player's inventory.
type vaultAccessor struct {
	backend store.Backend
	records *store.Records[vault.Slots]
	invs    *store.Records[inventoryRecord]
	owner   uuid.UUID
	shop    string
}

func (a vaultAccessor) Load(ctx context.Context) (vault.Slots, error) {
	slots, err := a.records.Load(ctx, a.owner, a.shop)
	if errors.Is(err, store.ErrNotFound) {
		return vault.Slots{}, nil
	}
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = vault.Slots{}
	}
	return slots, nil
}

func (a vaultAccessor) Save(ctx context.Context, slots vault.Slots) error {
	return a.records.Save(ctx, a.owner, a.shop, slots)
}

func (a vaultAccessor) Commit(ctx context.Context, player uuid.UUID, slots vault.Slots, inv *inventory.Inventory) error {
	vw, err := a.records.Write(a.owner, a.shop, slots)
	if err != nil {
		return err
	}
	iw, err := a.invs.Write(player, inventoryName, inventoryRecord{Slots: inv.Snapshot()})
	if err != nil {
		return err
	}
	return a.backend.PutBatch(ctx, []store.Write{vw, iw})
}

func (s *Service) vault(owner uuid.UUID, shop string) vaultAccessor {
	return vaultAccessor{
		backend: s.backend,
		records: s.vaults,
		invs:    s.invs,
		owner:   owner,
		shop:    shop,
	}
}

// buyer adapts a stored player inventory to trade.Buyer.
type buyer struct {
	id  uuid.UUID
	inv *inventory.Inventory
}

func (b *buyer) ID() uuid.UUID                    { return b.id }
func (b *buyer) Inventory() *inventory.Inventory  { return b.inv }
func (b *buyer) Replace(inv *inventory.Inventory) { b.inv = inv }
