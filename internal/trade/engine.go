package trade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/vault"
)

// SuccessMessage is sent to the buyer after a completed purchase.
const SuccessMessage = "Purchase successful!"

// Offer is the trade a shop advertises.
type Offer struct {
	Offered  item.Stack
	Required item.Stack
}

// Tradeable reports whether both sides of the offer are set.
func (o Offer) Tradeable() bool {
	return !o.Offered.IsEmpty() && !o.Required.IsEmpty()
}

// Buyer is the purchasing actor and their live inventory.
type Buyer interface {
	ID() uuid.UUID
	Inventory() *inventory.Inventory
	Replace(inv *inventory.Inventory)
}

// VaultAccessor reads and writes the seller's vault for one shop.
type VaultAccessor interface {
	Load(ctx context.Context) (vault.Slots, error)
	Save(ctx context.Context, slots vault.Slots) error
}

// Committer is a VaultAccessor that persists the vault and the buyer's
// inventory in one write. Purchase prefers it over Save so a failed write
// cannot leave one side changed.
type Committer interface {
	VaultAccessor
	Commit(ctx context.Context, buyer uuid.UUID, slots vault.Slots, inv *inventory.Inventory) error
}

// StockDisplay receives the stock count after a purchase.
type StockDisplay interface {
	ShowStock(count int)
}

// StockFunc adapts a function to StockDisplay.
type StockFunc func(count int)

// ShowStock calls f(count).
func (f StockFunc) ShowStock(count int) { f(count) }

// Receipt describes a completed purchase.
type Receipt struct {
	Buyer     uuid.UUID
	Offered   item.Stack
	Required  item.Stack
	StockLeft int
}

// Engine runs purchases. It holds no per-purchase state and is safe for
// concurrent use; serializing purchases against the same vault is the
// caller's job.
type Engine struct {
	layout vault.Layout
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLayout overrides the vault layout.
func WithLayout(l vault.Layout) Option {
	return func(e *Engine) { e.layout = l }
}

// New creates an engine using the default vault layout.
func New(opts ...Option) *Engine {
	e := &Engine{layout: vault.DefaultLayout(), logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the vault layout the engine trades against.
func (e *Engine) Layout() vault.Layout {
	return e.layout
}

// Stock counts the offered item in the selling partition.
func (e *Engine) Stock(slots vault.Slots, offered item.Stack) int {
	return slots.Count(e.layout, vault.Selling, offered)
}

// plan holds the post-purchase state of both inventories.
type plan struct {
	inv   *inventory.Inventory
	slots vault.Slots
	stock int
}

// Purchase validates and executes one trade. A *Rejection means nothing was
// changed. Any other error is a persistence or planning failure; it also
// leaves both sides unchanged. display may be nil.
func (e *Engine) Purchase(ctx context.Context, buyer Buyer, offer Offer, va VaultAccessor, display StockDisplay) (Receipt, error) {
	if !offer.Tradeable() {
		return Receipt{}, reject(CodeNotTradeable)
	}

	slots, err := va.Load(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("purchase: load vault: %w", err)
	}
	inv := buyer.Inventory()

	if rej := e.check(inv, slots, offer); rej != nil {
		e.logger.Debug("purchase rejected", "buyer", buyer.ID(), "code", rej.Code)
		return Receipt{}, rej
	}

	p, err := e.plan(inv, slots, offer)
	if err != nil {
		return Receipt{}, err
	}

	if err := e.persist(ctx, buyer, va, p); err != nil {
		return Receipt{}, err
	}
	buyer.Replace(p.inv)
	if display != nil {
		display.ShowStock(p.stock)
	}

	e.logger.Debug("purchase completed",
		"buyer", buyer.ID(),
		"offered", offer.Offered.String(),
		"required", offer.Required.String(),
		"stock_left", p.stock,
	)
	return Receipt{
		Buyer:     buyer.ID(),
		Offered:   offer.Offered,
		Required:  offer.Required,
		StockLeft: p.stock,
	}, nil
}

// check runs the four validations in order.
func (e *Engine) check(inv *inventory.Inventory, slots vault.Slots, offer Offer) *Rejection {
	if e.Stock(slots, offer.Offered) < offer.Offered.Amount {
		return reject(CodeInsufficientStock)
	}
	if !slots.CanAccept(e.layout, vault.Buying, offer.Required, offer.Required.Amount) {
		return reject(CodeVaultFull)
	}
	if inv.Count(offer.Required) < offer.Required.Amount {
		return reject(CodeInsufficientFunds)
	}
	if inv.FirstEmpty() == -1 {
		return reject(CodeInventoryFull)
	}
	return nil
}

// plan applies the mutation steps to copies.
func (e *Engine) plan(inv *inventory.Inventory, slots vault.Slots, offer Offer) (plan, error) {
	nextInv := inv.Clone()
	nextSlots := slots.Clone()

	if got := nextInv.Remove(offer.Required, offer.Required.Amount); got != offer.Required.Amount {
		return plan{}, fmt.Errorf("%w: debited %d of %d %s from buyer", ErrPlanOverflow, got, offer.Required.Amount, offer.Required.Type)
	}
	if left := nextInv.Add(offer.Offered.WithAmount(offer.Offered.Amount)); left != 0 {
		return plan{}, fmt.Errorf("%w: %d %s did not fit in buyer inventory", ErrPlanOverflow, left, offer.Offered.Type)
	}
	if got := nextSlots.Take(e.layout, vault.Selling, offer.Offered, offer.Offered.Amount); got != offer.Offered.Amount {
		return plan{}, fmt.Errorf("%w: took %d of %d %s from stock", ErrPlanOverflow, got, offer.Offered.Amount, offer.Offered.Type)
	}
	if left := nextSlots.Put(e.layout, vault.Buying, offer.Required, offer.Required.Amount); left != 0 {
		return plan{}, fmt.Errorf("%w: %d %s did not fit in vault", ErrPlanOverflow, left, offer.Required.Type)
	}

	return plan{
		inv:   nextInv,
		slots: nextSlots,
		stock: e.Stock(nextSlots, offer.Offered),
	}, nil
}

func (e *Engine) persist(ctx context.Context, buyer Buyer, va VaultAccessor, p plan) error {
	if c, ok := va.(Committer); ok {
		if err := c.Commit(ctx, buyer.ID(), p.slots, p.inv); err != nil {
			return fmt.Errorf("purchase: commit: %w", err)
		}
		return nil
	}
	if err := va.Save(ctx, p.slots); err != nil {
		return fmt.Errorf("purchase: save vault: %w", err)
	}
	return nil
}
