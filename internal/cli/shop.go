package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/market"
	"github.com/roach88/marketcraft/internal/store"
)

// NewShopCommand creates the shop command group.
func NewShopCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Create, remove and inspect shops",
	}
	cmd.AddCommand(newShopCreateCommand(rootOpts))
	cmd.AddCommand(newShopRemoveCommand(rootOpts))
	cmd.AddCommand(newShopListCommand(rootOpts))
	cmd.AddCommand(newShopShowCommand(rootOpts))
	return cmd
}

func newShopCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <owner> <shop> <SELL_TYPE:n> <PAY_TYPE:n>",
		Short: "Create a shop or change its trade",
		Long: `Create a shop that hands out SELL_TYPE:n for every PAY_TYPE:n it
receives. Running create again for an existing shop replaces its trade.

Example:
  marketcraft shop create Alice gems EMERALD:1 DIAMOND:1`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			offered, err := parseStack(args[2])
			if err != nil {
				return err
			}
			required, err := parseStack(args[3])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				shop, err := a.market.CreateShop(a.ctx, owner.ID, args[1], offered, required)
				return a.finish("", shop, err)
			})
		},
	}
}

func newShopRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <owner> <shop>",
		Short: "Remove a shop with an empty vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				removal, err := a.market.RemoveShop(a.ctx, owner.ID, args[1])
				return a.finish("", removal, err)
			})
		},
	}
}

func newShopListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [owner]",
		Short: "List an owner's shops, or every shop",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				if len(args) == 0 {
					return a.listAllShops()
				}
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				shops, err := a.market.ListShops(a.ctx, owner.ID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list shops", err)
				}
				if len(shops) == 0 {
					return a.out.Result(fmt.Sprintf("%s has no shops.", owner.Name), shops, nil)
				}
				lines := make([]string, 0, len(shops))
				for _, s := range shops {
					lines = append(lines, describeShop(s))
				}
				return a.out.Result(strings.Join(lines, "\n"), shops, nil)
			})
		},
	}
}

func (a *app) listAllShops() error {
	shops, err := a.market.AllShops(a.ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list shops", err)
	}
	if len(shops) == 0 {
		return a.out.Result("There are no shops.", shops, nil)
	}
	lines := make([]string, 0, len(shops))
	for _, s := range shops {
		lines = append(lines, a.playerName(s.Owner)+"/"+describeShop(s))
	}
	return a.out.Result(strings.Join(lines, "\n"), shops, nil)
}

// shopDetail is the JSON payload of shop show.
type shopDetail struct {
	Shop  market.Shop       `json:"shop"`
	Stock int               `json:"stock"`
	Signs []market.SignLink `json:"signs"`
}

func newShopShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner> <shop>",
		Short: "Show a shop's trade, stock and signs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				shop, err := a.market.Shop(a.ctx, owner.ID, args[1])
				if err != nil {
					return a.finish("", nil, err)
				}
				stock, err := a.market.Stock(a.ctx, owner.ID, shop.Name)
				if err != nil {
					return a.finish("", nil, err)
				}
				signs, err := a.market.SignsFor(a.ctx, owner.ID, shop.Name)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list signs", err)
				}

				if r, ok := a.backend.(store.Revisioner); ok {
					if rev, err := r.Revision(a.ctx, store.KindShop, owner.ID, shop.Name); err == nil {
						a.out.VerboseLog("shop record revision %d", rev)
					}
				}

				lines := []string{describeShop(shop), market.StockLabel(stock)}
				for _, s := range signs {
					lines = append(lines, "sign at "+s.Location.Key())
				}
				return a.out.Result(strings.Join(lines, "\n"), shopDetail{Shop: shop, Stock: stock, Signs: signs}, nil)
			})
		},
	}
}

func describeShop(s market.Shop) string {
	return fmt.Sprintf("%s: sells %s for %s", s.Name, s.Offered, s.Required)
}
