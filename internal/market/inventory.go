package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/store"
)

// inventoryName is the record name of a player's main inventory.
const inventoryName = "main"

type inventoryRecord struct {
	Slots map[int]item.Stack `json:"slots"`
}

func (s *Service) loadInventory(ctx context.Context, player uuid.UUID) (*inventory.Inventory, error) {
	rec, err := s.invs.Load(ctx, player, inventoryName)
	if errors.Is(err, store.ErrNotFound) {
		return inventory.NewPlayer(), nil
	}
	if err != nil {
		return nil, err
	}
	return inventory.FromSnapshot(inventory.PlayerSize, rec.Slots)
}

func (s *Service) saveInventory(ctx context.Context, player uuid.UUID, inv *inventory.Inventory) error {
	return s.invs.Save(ctx, player, inventoryName, inventoryRecord{Slots: inv.Snapshot()})
}

// Inventory returns a player's inventory. Players without a stored
// inventory start empty.
func (s *Service) Inventory(ctx context.Context, player uuid.UUID) (*inventory.Inventory, error) {
	inv, err := s.loadInventory(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return inv, nil
}

// SaveInventory replaces a player's inventory.
func (s *Service) SaveInventory(ctx context.Context, player uuid.UUID, inv *inventory.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveInventory(ctx, player, inv); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// Give adds items to a player's inventory and returns the amount that did
// not fit.
func (s *Service) Give(ctx context.Context, player uuid.UUID, st item.Stack) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.NormalizeType(st.Type) == "" || st.Amount <= 0 {
		return 0, fmt.Errorf("give: invalid item %s", st)
	}
	inv, err := s.loadInventory(ctx, player)
	if err != nil {
		return 0, fmt.Errorf("give: %w", err)
	}
	left := inv.Add(st)
	if err := s.saveInventory(ctx, player, inv); err != nil {
		return 0, fmt.Errorf("give: %w", err)
	}
	return left, nil
}
