// Package harness runs scripted market sessions and checks their outcome.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: buy_one_trade
//	description: "What this scenario validates"
//	players:
//	  - name: Alice
//	  - name: Bob
//	shops:
//	  - { owner: Alice, name: gems, offered: "EMERALD:1", required: "DIAMOND:1" }
//	inventories:
//	  - { player: Bob, items: ["DIAMOND:5"] }
//	vaults:
//	  - { owner: Alice, shop: gems, slots: { 0: "EMERALD:10" } }
//	steps:
//	  - { action: buy, actor: Bob, owner: Alice, shop: gems }
//	  - { action: buy, actor: Bob, owner: Alice, shop: gems, times: 20, expect: INSUFFICIENT_STOCK }
//	assertions:
//	  - { type: stock, owner: Alice, shop: gems, count: 0 }
//	  - { type: inventory_count, player: Bob, item: DIAMOND, count: 0 }
//
// Each step names an action (create_shop, open_shop, buy, close_shop,
// open_vault, deposit, withdraw, close_vault, remove_shop,
// admin_remove_shop) and the outcome code it expects. Open screens are
// kept under the step's view name, or its shop name when no view is given,
// so later steps can buy through them or close them.
//
// # Assertion Types
//
//   - stock: the selling stock of a shop
//   - inventory_count: how many of an item a player holds
//   - vault_count: how many of an item a vault holds, optionally per partition
//   - shop_exists: whether a shop is present
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite database, sequential player ids
// (testutil.SequentialIDs) and a stepping clock (testutil.DeterministicClock),
// so the transcript of steps and player messages is identical across runs
// and can be compared against golden files with RunWithGolden.
package harness
