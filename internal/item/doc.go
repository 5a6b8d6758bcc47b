// Package item describes the stackable item descriptors exchanged by shops.
//
// A Stack is the unit every other package trades in: an item type, a count, the
// per-type maximum stack size and an opaque metadata blob supplied by the host
// game (enchantments, custom names). Two stacks are "similar" when everything
// except the count matches; similarity is what stock counting, payment checks
// and vault partitioning are based on.
package item
