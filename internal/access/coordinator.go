// Package access decides when a shop's configuration or vault may be read,
// changed or deleted, based on the advisory locks held by open views.
//
// Viewing a shop holds its vault lock, so the owner cannot restock while a
// buyer is looking at the stock. Editing a vault holds the shop lock, so the
// shop cannot be reconfigured or deleted mid-edit. Deletion is refused, never
// queued, while either lock is held.
package access

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/lockreg"
)

// ConflictError reports that a resource is held by an open view.
type ConflictError struct {
	Kind  lockreg.Kind
	Owner uuid.UUID
	Shop  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is currently in use", e.Kind, e.Shop)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Coordinator applies the lock policy on top of two registries.
type Coordinator struct {
	shops  *lockreg.Registry
	vaults *lockreg.Registry
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a coordinator over the given shop and vault registries.
func New(shops, vaults *lockreg.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{shops: shops, vaults: vaults, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanDelete returns nil when neither the shop nor its vault is held. The vault
// is checked first.
func (c *Coordinator) CanDelete(owner uuid.UUID, shop string) error {
	if c.vaults.IsLocked(owner, shop) {
		return &ConflictError{Kind: lockreg.KindVault, Owner: owner, Shop: shop}
	}
	if c.shops.IsLocked(owner, shop) {
		return &ConflictError{Kind: lockreg.KindShop, Owner: owner, Shop: shop}
	}
	return nil
}

// ShopLocked reports whether the shop configuration is held by a vault editor.
func (c *Coordinator) ShopLocked(owner uuid.UUID, shop string) bool {
	return c.shops.IsLocked(owner, shop)
}

// VaultLocked reports whether the vault is held by a shop viewer.
func (c *Coordinator) VaultLocked(owner uuid.UUID, shop string) bool {
	return c.vaults.IsLocked(owner, shop)
}

// OpenShopView starts a buyer session: the vault stays locked until the
// session is closed. It is refused while the shop configuration is held.
func (c *Coordinator) OpenShopView(owner uuid.UUID, shop string, viewer uuid.UUID) (*Session, error) {
	if c.shops.IsLocked(owner, shop) {
		return nil, &ConflictError{Kind: lockreg.KindShop, Owner: owner, Shop: shop}
	}
	return c.open(c.vaults, owner, shop, viewer), nil
}

// OpenVaultView starts a restocking session: the shop stays locked until the
// session is closed. It is refused while a buyer holds the vault.
func (c *Coordinator) OpenVaultView(owner uuid.UUID, shop string, viewer uuid.UUID) (*Session, error) {
	if c.vaults.IsLocked(owner, shop) {
		return nil, &ConflictError{Kind: lockreg.KindVault, Owner: owner, Shop: shop}
	}
	return c.open(c.shops, owner, shop, viewer), nil
}

func (c *Coordinator) open(reg *lockreg.Registry, owner uuid.UUID, shop string, viewer uuid.UUID) *Session {
	reg.Acquire(owner, shop, viewer)
	c.logger.Debug("session opened", "kind", reg.Kind(), "owner", owner, "shop", shop, "viewer", viewer)
	return &Session{reg: reg, owner: owner, shop: shop, viewer: viewer, logger: c.logger}
}

// Session is one actor's open view. It holds a lock from creation until Close.
type Session struct {
	reg    *lockreg.Registry
	owner  uuid.UUID
	shop   string
	viewer uuid.UUID
	logger *slog.Logger

	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// Owner returns the shop owner.
func (s *Session) Owner() uuid.UUID { return s.owner }

// Shop returns the shop name.
func (s *Session) Shop() string { return s.shop }

// Viewer returns the actor holding the session.
func (s *Session) Viewer() uuid.UUID { return s.viewer }

// Kind returns the kind of resource the session holds.
func (s *Session) Kind() lockreg.Kind { return s.reg.Kind() }

// Open reports whether Close has not been called yet.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close releases the session's lock. Calling it more than once is harmless.
func (s *Session) Close() {
	s.once.Do(func() {
		s.reg.Release(s.owner, s.shop, s.viewer)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.logger.Debug("session closed", "kind", s.reg.Kind(), "owner", s.owner, "shop", s.shop, "viewer", s.viewer)
	})
}
