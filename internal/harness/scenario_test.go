package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/purchase_success.yaml")
	require.NoError(t, err)

	assert.Equal(t, "purchase_success", scenario.Name)
	require.Len(t, scenario.Players, 2)
	require.Len(t, scenario.Vaults, 1)
	assert.Equal(t, "EMERALD:10", scenario.Vaults[0].Slots[0])
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "OK", scenario.Steps[0].Expect, "expect defaults to OK")
	require.Len(t, scenario.Assertions, 5)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	doc := `
name: typo
description: "misspelled section"
players: [{name: Alice}]
step:
  - {action: open_vault, actor: Alice, shop: gems}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ExpectIsNormalized(t *testing.T) {
	scenario := mustParse(t, `
name: codes
description: "lowercase codes"
players: [{name: Alice}]
steps:
  - {action: remove_shop, actor: Alice, shop: gems, expect: " shop_not_found "}
`)
	assert.Equal(t, "SHOP_NOT_FOUND", scenario.Steps[0].Expect)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc:  `{description: d, players: [{name: A}], steps: [{action: open_vault, actor: A, shop: s}]}`,
			want: "name is required",
		},
		{
			name: "missing description",
			doc:  `{name: n, players: [{name: A}], steps: [{action: open_vault, actor: A, shop: s}]}`,
			want: "description is required",
		},
		{
			name: "no players",
			doc:  `{name: n, description: d, steps: [{action: open_vault, actor: A, shop: s}]}`,
			want: "players list is required",
		},
		{
			name: "no steps",
			doc:  `{name: n, description: d, players: [{name: A}]}`,
			want: "steps list is required",
		},
		{
			name: "unknown shop owner",
			doc: `{name: n, description: d, players: [{name: A}],
    shops: [{owner: B, name: s, offered: "EMERALD:1", required: "DIAMOND:1"}],
    steps: [{action: open_vault, actor: A, shop: s}]}`,
			want: `shops[0]: unknown owner "B"`,
		},
		{
			name: "bad item",
			doc: `{name: n, description: d, players: [{name: A}],
    inventories: [{player: A, items: ["EMERALD:x"]}],
    steps: [{action: open_vault, actor: A, shop: s}]}`,
			want: "inventories[0]",
		},
		{
			name: "unknown actor",
			doc:  `{name: n, description: d, players: [{name: A}], steps: [{action: open_vault, actor: Z, shop: s}]}`,
			want: `steps[0]: unknown actor "Z"`,
		},
		{
			name: "unknown action",
			doc:  `{name: n, description: d, players: [{name: A}], steps: [{action: teleport, actor: A}]}`,
			want: `unknown action "teleport"`,
		},
		{
			name: "deposit without slot",
			doc:  `{name: n, description: d, players: [{name: A}], steps: [{action: deposit, actor: A, shop: s}]}`,
			want: "slot is required for deposit",
		},
		{
			name: "admin removal without owner",
			doc:  `{name: n, description: d, players: [{name: A}], steps: [{action: admin_remove_shop, actor: A, shop: s}]}`,
			want: "owner and shop are required for admin_remove_shop",
		},
		{
			name: "stranger owner outside admin removal",
			doc:  `{name: n, description: d, players: [{name: A}], steps: [{action: open_shop, actor: A, owner: Z, shop: s}]}`,
			want: `steps[0]: unknown owner "Z"`,
		},
		{
			name: "unknown assertion",
			doc: `{name: n, description: d, players: [{name: A}],
    steps: [{action: open_vault, actor: A, shop: s}],
    assertions: [{type: weather}]}`,
			want: `unknown assertion type "weather"`,
		},
		{
			name: "bad partition",
			doc: `{name: n, description: d, players: [{name: A}],
    steps: [{action: open_vault, actor: A, shop: s}],
    assertions: [{type: vault_count, owner: A, shop: s, item: EMERALD, partition: middle}]}`,
			want: "partition must be selling or buying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
