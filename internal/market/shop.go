package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/marketcraft/internal/access"
	"github.com/roach88/marketcraft/internal/identity"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/lockreg"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/trade"
	"github.com/roach88/marketcraft/internal/vault"
)

// Shop is an owner's standing offer: Offered is handed out per trade in
// exchange for Required.
type Shop struct {
	Owner     uuid.UUID  `json:"owner"`
	Name      string     `json:"name"`
	Offered   item.Stack `json:"offered"`
	Required  item.Stack `json:"required"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Offer returns the trade this shop advertises.
func (s Shop) Offer() trade.Offer {
	return trade.Offer{Offered: s.Offered, Required: s.Required}
}

// Tradeable reports whether both sides of the trade are set.
func (s Shop) Tradeable() bool {
	return s.Offer().Tradeable()
}

// NormalizeShopName canonicalizes a shop name: NFC and trimmed.
func NormalizeShopName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

func validShopName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\")
}

// Removal reports what RemoveShop deleted.
type Removal struct {
	Shop  bool `json:"shop"`
	Vault bool `json:"vault"`
}

// CreateShop sets up a shop or replaces an existing shop's trade. New shops
// count against the shop limit and get an empty vault.
func (s *Service) CreateShop(ctx context.Context, owner uuid.UUID, name string, offered, required item.Stack) (Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = NormalizeShopName(name)
	if !validShopName(name) {
		return Shop{}, s.refused(owner, refuse(CodeInvalidShop, "Invalid shop name %q.", name))
	}
	if offered.IsEmpty() || required.IsEmpty() {
		return Shop{}, s.refused(owner, refuse(CodeInvalidShop, "Please place items in both the 'item to sell' and 'item to charge' slots."))
	}
	offered, required = offered.Normalize(), required.Normalize()
	for _, st := range []item.Stack{offered, required} {
		if err := st.Validate(); err != nil {
			return Shop{}, s.refused(owner, refuse(CodeInvalidShop, "%s", err.Error()))
		}
	}

	now := s.clock.Now()
	shop, err := s.shops.Load(ctx, owner, name)
	switch {
	case err == nil:
		if err := s.coord.CanDelete(owner, name); err != nil {
			return Shop{}, s.refused(owner, inUse(name, err, "modify"))
		}
	case errors.Is(err, store.ErrNotFound):
		names, err := s.shops.Names(ctx, owner)
		if err != nil {
			return Shop{}, s.failed(owner, "create shop", err)
		}
		if len(names) >= s.limits.Shops {
			return Shop{}, s.refused(owner, refuse(CodeShopLimit, "You have reached your limit of shops."))
		}
		shop = Shop{Owner: owner, Name: name, CreatedAt: now}
	default:
		return Shop{}, s.failed(owner, "create shop", err)
	}

	shop.Offered, shop.Required, shop.UpdatedAt = offered, required, now
	if err := s.shops.Save(ctx, owner, name, shop); err != nil {
		s.logger.Warn("save shop failed", "owner", owner, "shop", name, "error", err)
		s.tell(owner, "An error occurred while saving your shop. Please try again later.")
		return Shop{}, fmt.Errorf("create shop: %w", err)
	}

	exists, err := s.vaults.Exists(ctx, owner, name)
	if err != nil {
		return Shop{}, s.failed(owner, "create shop", err)
	}
	if !exists {
		if err := s.vault(owner, name).Save(ctx, vault.Slots{}); err != nil {
			s.logger.Warn("create vault failed", "owner", owner, "shop", name, "error", err)
			s.tell(owner, "An error occurred while creating your vault for %s. Please try again later.", name)
			return Shop{}, fmt.Errorf("create shop: %w", err)
		}
	}

	s.logger.Info("shop saved", "owner", owner, "shop", name, "offered", offered.String(), "required", required.String())
	s.tell(owner, "Shop '%s' setup confirmed!", name)
	return shop, nil
}

// Shop loads one shop.
func (s *Service) Shop(ctx context.Context, owner uuid.UUID, name string) (Shop, error) {
	name = NormalizeShopName(name)
	shop, err := s.shops.Load(ctx, owner, name)
	if errors.Is(err, store.ErrNotFound) {
		return Shop{}, refuse(CodeShopNotFound, "No shop '%s' found.", name)
	}
	if err != nil {
		return Shop{}, fmt.Errorf("load shop: %w", err)
	}
	return shop, nil
}

// ListShops returns an owner's shops ordered by name.
func (s *Service) ListShops(ctx context.Context, owner uuid.UUID) ([]Shop, error) {
	names, err := s.shops.Names(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	shops := make([]Shop, 0, len(names))
	for _, name := range names {
		shop, err := s.shops.Load(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("list shops: %w", err)
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

// AllShops returns every shop in the market, grouped by owner.
func (s *Service) AllShops(ctx context.Context) ([]Shop, error) {
	owners, err := s.shops.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	var all []Shop
	for _, owner := range owners {
		shops, err := s.ListShops(ctx, owner)
		if err != nil {
			return nil, err
		}
		all = append(all, shops...)
	}
	return all, nil
}

// ListVaults returns the names of an owner's vaults.
func (s *Service) ListVaults(ctx context.Context, owner uuid.UUID) ([]string, error) {
	names, err := s.vaults.Names(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	return names, nil
}

// Vault returns a copy of a shop's stored vault.
func (s *Service) Vault(ctx context.Context, owner uuid.UUID, name string) (vault.Slots, error) {
	slots, err := s.vault(owner, NormalizeShopName(name)).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}
	return slots, nil
}

// Stock counts the shop's offered item in the vault's selling partition.
func (s *Service) Stock(ctx context.Context, owner uuid.UUID, name string) (int, error) {
	shop, err := s.Shop(ctx, owner, name)
	if err != nil {
		return 0, err
	}
	slots, err := s.vault(owner, shop.Name).Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("stock: %w", err)
	}
	return s.engine.Stock(slots, shop.Offered), nil
}

// RemoveShop deletes a shop and its vault. The vault must be empty and
// neither the shop nor the vault may be open.
func (s *Service) RemoveShop(ctx context.Context, owner uuid.UUID, name string) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = NormalizeShopName(name)
	exists, err := s.shops.Exists(ctx, owner, name)
	if err != nil {
		return Removal{}, s.failed(owner, "remove shop", err)
	}
	if !exists {
		return Removal{}, s.refused(owner, refuse(CodeShopNotFound, "You do not have a shop by this name."))
	}

	slots, err := s.vault(owner, name).Load(ctx)
	if err != nil {
		return Removal{}, s.failed(owner, "remove shop", err)
	}
	if !slots.IsEmpty(s.layout) {
		return Removal{}, s.refused(owner, refuse(CodeVaultNotEmpty, "Cannot remove shop '%s' as its vault is not empty.", name))
	}

	return s.removeShop(ctx, owner, owner, name)
}

// AdminRemoveShop deletes another player's shop without the empty-vault
// check. Open shops and vaults still block removal.
func (s *Service) AdminRemoveShop(ctx context.Context, admin uuid.UUID, ownerName, name string) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, admin); err != nil {
		return Removal{}, err
	}
	owner, err := s.players.Resolve(ctx, ownerName)
	if errors.Is(err, identity.ErrUnknownPlayer) {
		return Removal{}, s.refused(admin, refuse(CodeUnknownPlayer, "Player '%s' not found.", ownerName))
	}
	if err != nil {
		return Removal{}, s.failed(admin, "admin remove shop", err)
	}

	name = NormalizeShopName(name)
	exists, err := s.shops.Exists(ctx, owner.ID, name)
	if err != nil {
		return Removal{}, s.failed(admin, "admin remove shop", err)
	}
	if !exists {
		return Removal{}, s.refused(admin, refuse(CodeShopNotFound, "No shop '%s' found.", name))
	}

	return s.removeShop(ctx, admin, owner.ID, name)
}

func (s *Service) removeShop(ctx context.Context, actor, owner uuid.UUID, name string) (Removal, error) {
	if err := s.coord.CanDelete(owner, name); err != nil {
		return Removal{}, s.refused(actor, inUse(name, err, "remove"))
	}

	var r Removal
	var err error
	if r.Shop, err = s.shops.Delete(ctx, owner, name); err != nil {
		return r, s.failed(actor, "remove shop", err)
	}
	s.tell(actor, "Removed shop '%s'.", name)

	if r.Vault, err = s.vaults.Delete(ctx, owner, name); err != nil {
		return r, s.failed(actor, "remove vault", err)
	}
	if r.Vault {
		s.tell(actor, "Removed associated vault for shop '%s'.", name)
	} else {
		s.tell(actor, "No vault found.")
	}

	s.logger.Info("shop removed", "owner", owner, "shop", name, "by", actor)
	return r, nil
}

// inUse turns a lock conflict into the refusal shown to the actor.
func inUse(name string, err error, verb string) *Error {
	var ce *access.ConflictError
	part := "shop"
	if errors.As(err, &ce) && ce.Kind == lockreg.KindVault {
		part = "vault"
	}
	return refuse(CodeInUse, "Cannot %s shop '%s' as its %s is currently locked.", verb, name, part)
}
