package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/access"
	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/trade"
	"github.com/roach88/marketcraft/internal/vault"
)

// StockLabel renders the stock indicator shown on an open shop.
func StockLabel(n int) string {
	return fmt.Sprintf("Shop has %d in stock", n)
}

// ShopView is a buyer's open shop screen. While it is open the shop's vault
// is locked against its owner.
type ShopView struct {
	svc     *Service
	session *access.Session
	shop    Shop

	mu    sync.Mutex
	stock int
}

// OpenShop opens a shop for viewer. It is refused while the owner has the
// shop's vault open.
func (s *Service) OpenShop(ctx context.Context, viewer, owner uuid.UUID, name string) (*ShopView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openShop(ctx, viewer, owner, name)
}

func (s *Service) openShop(ctx context.Context, viewer, owner uuid.UUID, name string) (*ShopView, error) {
	name = NormalizeShopName(name)
	shop, err := s.shops.Load(ctx, owner, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.refused(viewer, refuse(CodeShopNotFound, "Shop does not exist or is invalid"))
	}
	if err != nil {
		return nil, s.failed(viewer, "open shop", err)
	}
	if !shop.Tradeable() {
		return nil, s.refused(viewer, refuse(CodeInvalidShop, "Shop does not exist or is invalid"))
	}

	slots, err := s.vault(owner, name).Load(ctx)
	if err != nil {
		return nil, s.failed(viewer, "open shop", err)
	}

	session, err := s.coord.OpenShopView(owner, name, viewer)
	if err != nil {
		return nil, s.refused(viewer, refuse(CodeInUse, "This shop is currently being modified. Please try again later."))
	}

	return &ShopView{
		svc:     s,
		session: session,
		shop:    shop,
		stock:   s.engine.Stock(slots, shop.Offered),
	}, nil
}

// Shop returns the shop snapshot taken when the view opened.
func (v *ShopView) Shop() Shop { return v.shop }

// Viewer returns the player looking at the shop.
func (v *ShopView) Viewer() uuid.UUID { return v.session.Viewer() }

// Stock returns the last published stock count.
func (v *ShopView) Stock() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stock
}

// Open reports whether the view still holds its lock.
func (v *ShopView) Open() bool { return v.session.Open() }

// ShowStock implements trade.StockDisplay.
func (v *ShopView) ShowStock(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stock = n
}

// Buy performs one purchase for the viewer.
func (v *ShopView) Buy(ctx context.Context) (trade.Receipt, error) {
	s := v.svc
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := v.Viewer()
	if !v.Open() {
		return trade.Receipt{}, s.refused(viewer, refuse(CodeViewClosed, "This shop is no longer open."))
	}

	inv, err := s.loadInventory(ctx, viewer)
	if err != nil {
		return trade.Receipt{}, s.failed(viewer, "purchase", err)
	}
	b := &buyer{id: viewer, inv: inv}

	// The vault accessor commits the vault and b's inventory in one write.
	receipt, err := s.engine.Purchase(ctx, b, v.shop.Offer(), s.vault(v.shop.Owner, v.shop.Name), v)
	if err != nil {
		var rej *trade.Rejection
		if errors.As(err, &rej) {
			s.logger.Debug("purchase rejected", "buyer", viewer, "shop", v.shop.Name, "code", rej.Code)
			s.sink.Notify(viewer, rej.Message)
			return trade.Receipt{}, err
		}
		return trade.Receipt{}, s.failed(viewer, "purchase", err)
	}

	s.logger.Info("purchase completed",
		"buyer", viewer,
		"owner", v.shop.Owner,
		"shop", v.shop.Name,
		"stock_left", receipt.StockLeft,
	)
	s.tell(viewer, trade.SuccessMessage)
	return receipt, nil
}

// Close releases the vault lock. Closing twice is a no-op.
func (v *ShopView) Close() {
	v.session.Close()
}

// VaultView is an owner's open vault screen. Changes are made to a working
// copy that is written back on Close. While it is open the shop is locked
// against buyers.
type VaultView struct {
	svc     *Service
	session *access.Session
	shop    Shop
	working vault.Slots
	closed  bool
}

// OpenVault opens the vault of one of owner's shops, creating it when
// missing. It is refused while a buyer has the shop open.
func (s *Service) OpenVault(ctx context.Context, owner uuid.UUID, name string) (*VaultView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = NormalizeShopName(name)
	shop, err := s.shops.Load(ctx, owner, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.refused(owner, refuse(CodeShopNotFound, "The shop '%s' does not exist, create a shop first.", name))
	}
	if err != nil {
		return nil, s.failed(owner, "open vault", err)
	}

	exists, err := s.vaults.Exists(ctx, owner, name)
	if err != nil {
		return nil, s.failed(owner, "open vault", err)
	}
	slots, err := s.vault(owner, name).Load(ctx)
	if err != nil {
		return nil, s.failed(owner, "open vault", err)
	}

	session, err := s.coord.OpenVaultView(owner, name, owner)
	if err != nil {
		return nil, s.refused(owner, refuse(CodeInUse, "This vault is currently in use. Please try again later."))
	}

	if exists {
		s.tell(owner, "Opening your existing vault for shop: %s", name)
	} else {
		s.tell(owner, "Creating and opening a new vault for shop: %s", name)
	}
	return &VaultView{svc: s, session: session, shop: shop, working: slots}, nil
}

// Shop returns the shop the vault belongs to.
func (v *VaultView) Shop() Shop { return v.shop }

// Slots returns a copy of the working vault.
func (v *VaultView) Slots() vault.Slots {
	v.svc.mu.Lock()
	defer v.svc.mu.Unlock()
	return v.working.Clone()
}

// Open reports whether the view still holds its lock.
func (v *VaultView) Open() bool { return v.session.Open() }

// partitionFor routes the shop's offered item to the selling partition and
// its payment item to the buying partition.
func (v *VaultView) partitionFor(st item.Stack) (vault.Partition, bool) {
	switch {
	case item.Similar(st, v.shop.Offered):
		return vault.Selling, true
	case item.Similar(st, v.shop.Required):
		return vault.Buying, true
	default:
		return "", false
	}
}

// Deposit moves the stack in the owner's inventory slot into the vault. It
// returns how many items moved; a partial move leaves the rest in the
// inventory.
func (v *VaultView) Deposit(ctx context.Context, invSlot int) (int, error) {
	s := v.svc
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := v.shop.Owner
	if v.closed {
		return 0, s.refused(owner, refuse(CodeViewClosed, "This vault is no longer open."))
	}
	inv, err := s.loadInventory(ctx, owner)
	if err != nil {
		return 0, s.failed(owner, "deposit", err)
	}
	if invSlot < 0 || invSlot >= inv.Size() || inv.Get(invSlot).IsEmpty() {
		return 0, s.refused(owner, refuse(CodeInvalidSlot, "There is no item in inventory slot %d.", invSlot))
	}

	st := inv.Get(invSlot)
	p, ok := v.partitionFor(st)
	if !ok {
		return 0, s.refused(owner, refuse(CodeItemNotAllowed, "This item cannot be placed in the vault."))
	}

	next := v.working.Clone()
	left := next.Put(s.layout, p, st, st.Amount)
	moved := st.Amount - left
	if moved == 0 {
		return 0, s.refused(owner, refuse(CodeVaultFull, "There is no available space in the vault for this item."))
	}

	if left == 0 {
		inv.Clear(invSlot)
	} else if err := inv.Set(invSlot, st.WithAmount(left)); err != nil {
		return 0, s.failed(owner, "deposit", err)
	}
	if err := s.saveInventory(ctx, owner, inv); err != nil {
		return 0, s.failed(owner, "deposit", err)
	}
	v.working = next
	s.logger.Debug("vault deposit", "owner", owner, "shop", v.shop.Name, "item", st.Type, "moved", moved, "partition", p)
	return moved, nil
}

// Withdraw moves the stack in a vault slot back to the owner's inventory. It
// returns how many items moved.
func (v *VaultView) Withdraw(ctx context.Context, vaultSlot int) (int, error) {
	s := v.svc
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := v.shop.Owner
	if v.closed {
		return 0, s.refused(owner, refuse(CodeViewClosed, "This vault is no longer open."))
	}
	st, ok := v.working[vaultSlot]
	if !ok || st.IsEmpty() {
		return 0, s.refused(owner, refuse(CodeInvalidSlot, "There is no item in vault slot %d.", vaultSlot))
	}

	inv, err := s.loadInventory(ctx, owner)
	if err != nil {
		return 0, s.failed(owner, "withdraw", err)
	}
	left := inv.Add(st)
	moved := st.Amount - left
	if moved == 0 {
		return 0, s.refused(owner, refuse(CodeInventoryFull, "Your inventory is full."))
	}
	if err := s.saveInventory(ctx, owner, inv); err != nil {
		return 0, s.failed(owner, "withdraw", err)
	}
	if left == 0 {
		delete(v.working, vaultSlot)
	} else {
		v.working[vaultSlot] = st.WithAmount(left)
	}
	s.logger.Debug("vault withdraw", "owner", owner, "shop", v.shop.Name, "item", st.Type, "moved", moved)
	return moved, nil
}

// Close returns items that do not belong in the vault to the owner, saves
// the working copy and releases the shop lock. The save replaces the stored
// vault. Closing twice is a no-op.
func (v *VaultView) Close(ctx context.Context) error {
	s := v.svc
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	defer v.session.Close()

	owner := v.shop.Owner
	inv, stranded, err := v.returnForeign(ctx)
	if err != nil {
		return s.failed(owner, "close vault", err)
	}
	acc := s.vault(owner, v.shop.Name)
	if inv != nil {
		err = acc.Commit(ctx, owner, v.working, inv)
	} else {
		err = acc.Save(ctx, v.working)
	}
	if err != nil {
		return s.failed(owner, "close vault", err)
	}
	if stranded {
		s.tell(owner, "Your inventory is full. Some items were left in the vault.")
	}
	s.logger.Debug("vault saved", "owner", owner, "shop", v.shop.Name, "slots", len(v.working))
	return nil
}

// returnForeign moves stacks sitting in the wrong partition, or matching
// neither side of the trade, from the working copy into the owner's
// inventory and returns that inventory, or nil when nothing moved. What does
// not fit stays in the vault.
func (v *VaultView) returnForeign(ctx context.Context) (*inventory.Inventory, bool, error) {
	s := v.svc
	var foreign []int
	for _, slot := range v.working.Indexes() {
		st := v.working[slot]
		want, ok := v.partitionFor(st)
		got, inPartition := s.layout.PartitionOf(slot)
		if !ok || !inPartition || want != got {
			foreign = append(foreign, slot)
		}
	}
	if len(foreign) == 0 {
		return nil, false, nil
	}

	inv, err := s.loadInventory(ctx, v.shop.Owner)
	if err != nil {
		return nil, false, err
	}
	stranded := false
	for _, slot := range foreign {
		st := v.working[slot]
		left := inv.Add(st)
		if left == 0 {
			delete(v.working, slot)
			continue
		}
		v.working[slot] = st.WithAmount(left)
		stranded = true
	}
	return inv, stranded, nil
}
