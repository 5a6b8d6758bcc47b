package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/inventory"
	"github.com/roach88/marketcraft/internal/item"
)

// NewGiveCommand creates the give command, which seeds a player's inventory.
func NewGiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "give <player> <TYPE> <amount>",
		Short: "Put items into a player's inventory",
		Long: `Put items into a player's inventory. Amounts larger than one stack
are split across slots; whatever does not fit is reported.

Example:
  marketcraft give Bob DIAMOND 5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[2])
			if err != nil || amount <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q: must be a positive number", args[2]))
			}
			st := item.New(args[1], amount)
			if st.Type == "" {
				return NewExitError(ExitCommandError, "item type is required")
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.player(args[0])
				if err != nil {
					return err
				}
				left, err := a.market.Give(a.ctx, p.ID, st)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to give items", err)
				}
				data := map[string]int{"given": st.Amount - left, "left_over": left}
				text := fmt.Sprintf("Gave %d %s to %s.", st.Amount-left, st.Type, p.Name)
				if left > 0 {
					text += fmt.Sprintf(" %d did not fit.", left)
				}
				return a.out.Result(text, data, nil)
			})
		},
	}
}

// NewInventoryCommand creates the inventory command.
func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <player>",
		Short: "Show a player's inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.player(args[0])
				if err != nil {
					return err
				}
				inv, err := a.market.Inventory(a.ctx, p.ID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to load inventory", err)
				}
				return a.out.Result(renderInventory(inv), inv.Snapshot(), nil)
			})
		},
	}
}

func renderInventory(inv *inventory.Inventory) string {
	slots := inv.Occupied()
	if len(slots) == 0 {
		return "Inventory is empty."
	}
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, renderSlot(slot, inv.Get(slot)))
	}
	return strings.Join(lines, "\n")
}

func renderSlot(slot int, st item.Stack) string {
	return fmt.Sprintf("%2d  %s", slot, st)
}
