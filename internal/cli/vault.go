package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/market"
	"github.com/roach88/marketcraft/internal/vault"
)

// NewVaultCommand creates the vault command group.
func NewVaultCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Stock and inspect shop vaults",
		Long: `Stock and inspect shop vaults. Columns 0-3 of the vault hold the
item for sale, columns 5-8 the payment received; column 4 is reserved.`,
	}
	cmd.AddCommand(newVaultMoveCommand(rootOpts, "deposit"))
	cmd.AddCommand(newVaultMoveCommand(rootOpts, "withdraw"))
	cmd.AddCommand(newVaultShowCommand(rootOpts))
	cmd.AddCommand(newVaultListCommand(rootOpts))
	return cmd
}

// newVaultMoveCommand opens the owner's vault, moves one slot and closes it.
func newVaultMoveCommand(rootOpts *RootOptions, verb string) *cobra.Command {
	use, short := "deposit <owner> <shop> <inventory-slot>", "Move an inventory slot into the vault"
	if verb == "withdraw" {
		use, short = "withdraw <owner> <shop> <vault-slot>", "Move a vault slot into the owner's inventory"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid slot", err)
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				view, err := a.market.OpenVault(a.ctx, owner.ID, args[1])
				if err != nil {
					return a.finish("", nil, err)
				}

				var moved int
				if verb == "deposit" {
					moved, err = view.Deposit(a.ctx, slot)
				} else {
					moved, err = view.Withdraw(a.ctx, slot)
				}
				if closeErr := view.Close(a.ctx); err == nil {
					err = closeErr
				}
				text := fmt.Sprintf("Moved %d items.", moved)
				return a.finish(text, map[string]int{"moved": moved}, err)
			})
		},
	}
}

// vaultSlot is one occupied vault slot in JSON output.
type vaultSlot struct {
	Slot      int             `json:"slot"`
	Partition vault.Partition `json:"partition"`
	Item      string          `json:"item"`
	Amount    int             `json:"amount"`
}

func newVaultShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner> <shop>",
		Short: "Show the stored contents of a shop's vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				if _, err := a.market.Shop(a.ctx, owner.ID, args[1]); err != nil {
					return a.finish("", nil, err)
				}
				slots, err := a.market.Vault(a.ctx, owner.ID, args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to load vault", err)
				}

				layout := a.market.Layout()
				rows := make([]vaultSlot, 0, len(slots))
				lines := make([]string, 0, len(slots))
				for _, i := range slots.Indexes() {
					st := slots[i]
					p, _ := layout.PartitionOf(i)
					rows = append(rows, vaultSlot{Slot: i, Partition: p, Item: st.Type, Amount: st.Amount})
					lines = append(lines, fmt.Sprintf("%s  %s", renderSlot(i, st), p))
				}
				if len(lines) == 0 {
					lines = append(lines, "Vault is empty.")
				}
				return a.out.Result(strings.Join(lines, "\n"), rows, nil)
			})
		},
	}
}

func newVaultListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List the shops an owner has vaults for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				names, err := a.market.ListVaults(a.ctx, owner.ID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list vaults", err)
				}
				if len(names) == 0 {
					return a.out.Result(fmt.Sprintf("%s has no vaults.", owner.Name), names, nil)
				}
				return a.out.Result(strings.Join(names, "\n"), names, nil)
			})
		},
	}
}

// shopLabel renders owner/shop for messages.
func shopLabel(owner string, shop market.Shop) string {
	return owner + "/" + shop.Name
}
