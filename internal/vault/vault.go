package vault

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/roach88/marketcraft/internal/item"
)

// Partition names a logical zone of the vault.
type Partition string

const (
	Selling Partition = "selling"
	Buying  Partition = "buying"
)

// Size is the number of slots in a vault.
const Size = 54

// Layout assigns vault slots to partitions. Slot lists are kept sorted.
type Layout struct {
	Reserved []int
	Selling  []int
	Buying   []int
}

// DefaultLayout mirrors the six-row vault screen: column 4 holds the screen
// controls, columns 0-3 the stock for sale and columns 5-8 received payment.
func DefaultLayout() Layout {
	var l Layout
	for row := 0; row < Size/9; row++ {
		for col := 0; col < 9; col++ {
			slot := row*9 + col
			switch {
			case col < 4:
				l.Selling = append(l.Selling, slot)
			case col == 4:
				l.Reserved = append(l.Reserved, slot)
			default:
				l.Buying = append(l.Buying, slot)
			}
		}
	}
	return l
}

// Slots returns the ascending slot list for a partition.
func (l Layout) Slots(p Partition) []int {
	switch p {
	case Selling:
		return l.Selling
	case Buying:
		return l.Buying
	default:
		return nil
	}
}

// IsReserved reports whether a slot belongs to the vault screen.
func (l Layout) IsReserved(slot int) bool {
	return lo.Contains(l.Reserved, slot)
}

// PartitionOf returns the partition a slot belongs to.
func (l Layout) PartitionOf(slot int) (Partition, bool) {
	switch {
	case lo.Contains(l.Selling, slot):
		return Selling, true
	case lo.Contains(l.Buying, slot):
		return Buying, true
	default:
		return "", false
	}
}

// Slots is the sparse content of one vault.
type Slots map[int]item.Stack

// Clone returns a deep copy.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v.WithAmount(v.Amount)
	}
	return out
}

// Indexes returns the occupied slot indexes in ascending order.
func (s Slots) Indexes() []int {
	keys := lo.Keys(map[int]item.Stack(s))
	sort.Ints(keys)
	return keys
}

// Count sums the amounts of stacks similar to want inside a partition.
func (s Slots) Count(l Layout, p Partition, want item.Stack) int {
	return lo.SumBy(l.Slots(p), func(slot int) int {
		if st, ok := s[slot]; ok && item.Similar(st, want) {
			return st.Amount
		}
		return 0
	})
}

// CanAccept reports whether n items like want fit in a single slot of the
// partition: a similar stack with headroom, or an empty slot.
func (s Slots) CanAccept(l Layout, p Partition, want item.Stack, n int) bool {
	for _, slot := range l.Slots(p) {
		st, ok := s[slot]
		if !ok || st.IsEmpty() {
			return true
		}
		if item.Similar(st, want) && st.Amount+n <= st.Max() {
			return true
		}
	}
	return false
}

// Take removes up to n items like want from a partition, least index first.
// Fully consumed stacks become empty slots. It returns the amount removed.
func (s Slots) Take(l Layout, p Partition, want item.Stack, n int) int {
	removed := 0
	for _, slot := range l.Slots(p) {
		if removed >= n {
			break
		}
		st, ok := s[slot]
		if !ok || !item.Similar(st, want) {
			continue
		}
		take := min(st.Amount, n-removed)
		st.Amount -= take
		removed += take
		if st.Amount <= 0 {
			delete(s, slot)
		} else {
			s[slot] = st
		}
	}
	return removed
}

// Put adds n items like want to a partition. A similar stack with room is
// topped up first (capped at the stack size), then the first empty slot is
// claimed. It returns the amount that found no room.
func (s Slots) Put(l Layout, p Partition, want item.Stack, n int) int {
	left := n
	for _, slot := range l.Slots(p) {
		if left == 0 {
			return 0
		}
		st, ok := s[slot]
		if ok && item.Similar(st, want) && st.Amount < st.Max() {
			add := min(st.Max()-st.Amount, left)
			st.Amount += add
			s[slot] = st
			left -= add
		}
	}
	for _, slot := range l.Slots(p) {
		if left == 0 {
			return 0
		}
		if st, ok := s[slot]; ok && !st.IsEmpty() {
			continue
		}
		add := min(want.Max(), left)
		s[slot] = want.Normalize().WithAmount(add)
		left -= add
	}
	return left
}

// IsEmpty reports whether no non-reserved slot holds an item.
func (s Slots) IsEmpty(l Layout) bool {
	for slot, st := range s {
		if !l.IsReserved(slot) && !st.IsEmpty() {
			return false
		}
	}
	return true
}

// Validate rejects stacks stored in reserved or out-of-range slots.
func (s Slots) Validate(l Layout) error {
	for _, slot := range s.Indexes() {
		if slot < 0 || slot >= Size {
			return fmt.Errorf("vault slot %d out of range", slot)
		}
		if l.IsReserved(slot) && !s[slot].IsEmpty() {
			return fmt.Errorf("vault slot %d is reserved", slot)
		}
	}
	return nil
}
