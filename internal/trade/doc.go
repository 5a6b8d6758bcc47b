// Package trade executes a single shop purchase.
//
// A purchase exchanges the shop's offered item, taken from the selling
// partition of the owner's vault, for the required payment, taken from the
// buyer's inventory and placed in the vault's buying partition.
//
// Four checks run first, in a fixed order, and the first failure ends the
// purchase with no side effects:
//
//  1. the vault holds enough stock
//  2. the vault's buying partition has room for the payment
//  3. the buyer holds enough payment
//  4. the buyer has a free inventory slot
//
// The five mutation steps (debit buyer, credit buyer, debit stock, credit
// payment, publish stock) are then applied to copies of both inventories.
// Only when every step succeeds on the copies is anything written: the vault
// first, then the buyer's inventory. A failed vault write leaves both sides
// exactly as they were.
package trade
