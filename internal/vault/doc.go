// Package vault holds the slot math for a shop's vault.
//
// A vault is a sparse map from slot index to item stack. Its 54 slots are
// split by a Layout into three zones:
//   - reserved slots used by the vault screen itself (never hold items)
//   - the selling partition: stock of the item a shop offers
//   - the buying partition: payment accumulated from purchases
//
// Every function here is pure with respect to storage. Loading and saving a
// vault's slots is the business of internal/store; deciding when it is safe
// to do so is the business of internal/access.
package vault
