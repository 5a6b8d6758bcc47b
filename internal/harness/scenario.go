package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/market"
)

// Scenario describes a market session: the starting world, the steps
// players take, and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Limits overrides the default shop and sign limits.
	Limits *config.Limits `yaml:"limits,omitempty"`

	Players     []PlayerSpec    `yaml:"players"`
	Shops       []ShopSpec      `yaml:"shops,omitempty"`
	Inventories []InventorySpec `yaml:"inventories,omitempty"`
	Vaults      []VaultSpec     `yaml:"vaults,omitempty"`

	// Steps run in order after the world is seeded.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// ExpectTranscript, when set, must equal the rendered transcript lines.
	ExpectTranscript []string `yaml:"expect_transcript,omitempty"`
}

// PlayerSpec registers a player.
type PlayerSpec struct {
	Name  string `yaml:"name"`
	Admin bool   `yaml:"admin,omitempty"`
}

// ShopSpec creates a shop as its owner.
type ShopSpec struct {
	Owner    string `yaml:"owner"`
	Name     string `yaml:"name"`
	Offered  string `yaml:"offered"`
	Required string `yaml:"required"`
}

// InventorySpec gives items to a player.
type InventorySpec struct {
	Player string   `yaml:"player"`
	Items  []string `yaml:"items"`
}

// VaultSpec overwrites a shop's vault contents, keyed by vault slot.
type VaultSpec struct {
	Owner string         `yaml:"owner"`
	Shop  string         `yaml:"shop"`
	Slots map[int]string `yaml:"slots"`
}

// Step is one player action.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Actor is the player performing the action.
	Actor string `yaml:"actor"`

	// Owner and Shop identify the shop acted on. Owner defaults to Actor.
	Owner string `yaml:"owner,omitempty"`
	Shop  string `yaml:"shop,omitempty"`

	// View names an open shop or vault screen so later steps can use it.
	// It defaults to Shop.
	View string `yaml:"view,omitempty"`

	// Slot is the inventory slot for deposit and the vault slot for withdraw.
	Slot *int `yaml:"slot,omitempty"`

	// Offered and Required are used by create_shop.
	Offered  string `yaml:"offered,omitempty"`
	Required string `yaml:"required,omitempty"`

	// Times repeats a buy step. Zero means once.
	Times int `yaml:"times,omitempty"`

	// Expect is the outcome code of the step: OK (the default) or a
	// refusal code such as INSUFFICIENT_STOCK.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion checks one number or fact in the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Owner     string `yaml:"owner,omitempty"`
	Shop      string `yaml:"shop,omitempty"`
	Player    string `yaml:"player,omitempty"`
	Item      string `yaml:"item,omitempty"`
	Partition string `yaml:"partition,omitempty"`

	// Count is the expected amount for stock, inventory_count and vault_count.
	Count int `yaml:"count"`

	// Exists is the expected outcome for shop_exists.
	Exists bool `yaml:"exists,omitempty"`
}

// Step actions.
const (
	ActionCreateShop      = "create_shop"
	ActionOpenShop        = "open_shop"
	ActionBuy             = "buy"
	ActionCloseShop       = "close_shop"
	ActionOpenVault       = "open_vault"
	ActionDeposit         = "deposit"
	ActionWithdraw        = "withdraw"
	ActionCloseVault      = "close_vault"
	ActionRemoveShop      = "remove_shop"
	ActionAdminRemoveShop = "admin_remove_shop"
)

// Assertion types.
const (
	AssertStock          = "stock"
	AssertInventoryCount = "inventory_count"
	AssertVaultCount     = "vault_count"
	AssertShopExists     = "shop_exists"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that
// references between sections resolve.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("players list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	players := make(map[string]bool, len(s.Players))
	for i, p := range s.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("players[%d]: name is required", i)
		}
		players[p.Name] = true
	}

	for i, shop := range s.Shops {
		if !players[shop.Owner] {
			return fmt.Errorf("shops[%d]: unknown owner %q", i, shop.Owner)
		}
		if shop.Name == "" {
			return fmt.Errorf("shops[%d]: name is required", i)
		}
		if err := validItems(shop.Offered, shop.Required); err != nil {
			return fmt.Errorf("shops[%d]: %w", i, err)
		}
	}

	for i, inv := range s.Inventories {
		if !players[inv.Player] {
			return fmt.Errorf("inventories[%d]: unknown player %q", i, inv.Player)
		}
		if err := validItems(inv.Items...); err != nil {
			return fmt.Errorf("inventories[%d]: %w", i, err)
		}
	}

	for i, v := range s.Vaults {
		if !players[v.Owner] {
			return fmt.Errorf("vaults[%d]: unknown owner %q", i, v.Owner)
		}
		for slot, text := range v.Slots {
			if err := validItems(text); err != nil {
				return fmt.Errorf("vaults[%d].slots[%d]: %w", i, slot, err)
			}
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i], players); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each action needs. Owners must be scenario
// players except for admin_remove_shop, which may name a stranger.
func validateStep(index int, st *Step, players map[string]bool) error {
	if !players[st.Actor] {
		return fmt.Errorf("steps[%d]: unknown actor %q", index, st.Actor)
	}
	if st.Owner != "" && !players[st.Owner] && st.Action != ActionAdminRemoveShop {
		return fmt.Errorf("steps[%d]: unknown owner %q", index, st.Owner)
	}
	needsShop := func() error {
		if st.Shop == "" && st.View == "" {
			return fmt.Errorf("steps[%d]: shop or view is required for %s", index, st.Action)
		}
		return nil
	}

	switch st.Action {
	case ActionCreateShop:
		if st.Shop == "" {
			return fmt.Errorf("steps[%d]: shop is required for create_shop", index)
		}
		if err := validItems(st.Offered, st.Required); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case ActionOpenShop, ActionOpenVault, ActionRemoveShop:
		if st.Shop == "" {
			return fmt.Errorf("steps[%d]: shop is required for %s", index, st.Action)
		}
	case ActionAdminRemoveShop:
		if st.Shop == "" || st.Owner == "" {
			return fmt.Errorf("steps[%d]: owner and shop are required for admin_remove_shop", index)
		}
	case ActionBuy, ActionCloseShop, ActionCloseVault:
		if err := needsShop(); err != nil {
			return err
		}
	case ActionDeposit, ActionWithdraw:
		if err := needsShop(); err != nil {
			return err
		}
		if st.Slot == nil {
			return fmt.Errorf("steps[%d]: slot is required for %s", index, st.Action)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}

	if st.Times < 0 {
		return fmt.Errorf("steps[%d]: times must not be negative", index)
	}
	st.Expect = strings.ToUpper(strings.TrimSpace(st.Expect))
	if st.Expect == "" {
		st.Expect = market.CodeOf(nil)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertStock, AssertShopExists:
		if a.Owner == "" || a.Shop == "" {
			return fmt.Errorf("assertions[%d]: owner and shop are required for %s", index, a.Type)
		}
	case AssertInventoryCount:
		if a.Player == "" || a.Item == "" {
			return fmt.Errorf("assertions[%d]: player and item are required for inventory_count", index)
		}
	case AssertVaultCount:
		if a.Owner == "" || a.Shop == "" || a.Item == "" {
			return fmt.Errorf("assertions[%d]: owner, shop and item are required for vault_count", index)
		}
		switch a.Partition {
		case "", "selling", "buying":
		default:
			return fmt.Errorf("assertions[%d]: partition must be selling or buying, got %q", index, a.Partition)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validItems(texts ...string) error {
	for _, text := range texts {
		if _, err := item.Parse(text); err != nil {
			return err
		}
	}
	return nil
}
