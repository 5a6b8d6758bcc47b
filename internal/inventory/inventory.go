// Package inventory models a player's live inventory as a fixed row of slots.
package inventory

import (
	"fmt"
	"sort"

	"github.com/roach88/marketcraft/internal/item"
)

// PlayerSize is the number of storage slots in a player inventory.
const PlayerSize = 36

// Inventory is a fixed-size slot array. Empty slots hold the zero Stack.
// An Inventory is not safe for concurrent use.
type Inventory struct {
	slots []item.Stack
}

// New creates an empty inventory with the given number of slots.
func New(size int) *Inventory {
	return &Inventory{slots: make([]item.Stack, size)}
}

// NewPlayer creates an empty player-sized inventory.
func NewPlayer() *Inventory {
	return New(PlayerSize)
}

// Size returns the number of slots.
func (inv *Inventory) Size() int {
	return len(inv.slots)
}

// Get returns the stack in a slot; out-of-range slots read as empty.
func (inv *Inventory) Get(slot int) item.Stack {
	if slot < 0 || slot >= len(inv.slots) {
		return item.Stack{}
	}
	return inv.slots[slot]
}

// Set places a stack in a slot, replacing whatever was there.
func (inv *Inventory) Set(slot int, s item.Stack) error {
	if slot < 0 || slot >= len(inv.slots) {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, len(inv.slots))
	}
	if s.IsEmpty() {
		inv.slots[slot] = item.Stack{}
		return nil
	}
	inv.slots[slot] = s.Normalize()
	return nil
}

// Clear empties a slot.
func (inv *Inventory) Clear(slot int) {
	if slot >= 0 && slot < len(inv.slots) {
		inv.slots[slot] = item.Stack{}
	}
}

// FirstEmpty returns the lowest empty slot index, or -1 when full.
func (inv *Inventory) FirstEmpty() int {
	for i, s := range inv.slots {
		if s.IsEmpty() {
			return i
		}
	}
	return -1
}

// Count sums the amounts of all stacks similar to s.
func (inv *Inventory) Count(s item.Stack) int {
	total := 0
	for _, slot := range inv.slots {
		if item.Similar(slot, s) {
			total += slot.Amount
		}
	}
	return total
}

// Remove takes up to n items similar to s, least-indexed stacks first.
// It returns how many items were actually removed.
func (inv *Inventory) Remove(s item.Stack, n int) int {
	removed := 0
	for i := range inv.slots {
		if removed >= n {
			break
		}
		if !item.Similar(inv.slots[i], s) {
			continue
		}
		take := min(inv.slots[i].Amount, n-removed)
		inv.slots[i].Amount -= take
		removed += take
		if inv.slots[i].Amount <= 0 {
			inv.slots[i] = item.Stack{}
		}
	}
	return removed
}

// Add stores a stack, topping up similar stacks before claiming empty slots.
// It returns the amount that did not fit.
func (inv *Inventory) Add(s item.Stack) int {
	if s.IsEmpty() {
		return 0
	}
	s = s.Normalize()
	left := s.Amount
	for i := range inv.slots {
		if left == 0 {
			return 0
		}
		slot := &inv.slots[i]
		if item.Similar(*slot, s) && slot.Amount < slot.Max() {
			add := min(slot.Max()-slot.Amount, left)
			slot.Amount += add
			left -= add
		}
	}
	for i := range inv.slots {
		if left == 0 {
			return 0
		}
		if inv.slots[i].IsEmpty() {
			add := min(s.Max(), left)
			inv.slots[i] = s.WithAmount(add)
			left -= add
		}
	}
	return left
}

// Clone returns a deep copy.
func (inv *Inventory) Clone() *Inventory {
	c := New(len(inv.slots))
	for i, s := range inv.slots {
		if !s.IsEmpty() {
			c.slots[i] = s.WithAmount(s.Amount)
		}
	}
	return c
}

// Snapshot returns the occupied slots as a sparse map, for persistence.
func (inv *Inventory) Snapshot() map[int]item.Stack {
	out := make(map[int]item.Stack)
	for i, s := range inv.slots {
		if !s.IsEmpty() {
			out[i] = s
		}
	}
	return out
}

// FromSnapshot rebuilds an inventory of the given size from a sparse map.
// Slots outside the inventory are rejected.
func FromSnapshot(size int, slots map[int]item.Stack) (*Inventory, error) {
	inv := New(size)
	for slot, s := range slots {
		if err := inv.Set(slot, s); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Occupied lists the indexes of non-empty slots in ascending order.
func (inv *Inventory) Occupied() []int {
	var out []int
	for i, s := range inv.slots {
		if !s.IsEmpty() {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Equal reports whether two inventories hold the same stacks in the same slots.
func (inv *Inventory) Equal(other *Inventory) bool {
	if other == nil || len(inv.slots) != len(other.slots) {
		return false
	}
	for i := range inv.slots {
		a, b := inv.slots[i], other.slots[i]
		if a.IsEmpty() != b.IsEmpty() {
			return false
		}
		if !a.IsEmpty() && (!item.Similar(a, b) || a.Amount != b.Amount) {
			return false
		}
	}
	return true
}
