package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/market"
)

// purchaseSummary is the JSON payload of a buy.
type purchaseSummary struct {
	Shop   string `json:"shop"`
	Bought int    `json:"bought"`
	Stock  int    `json:"stock"`
}

// NewBuyCommand creates the buy command.
func NewBuyCommand(rootOpts *RootOptions) *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "buy <buyer> <owner> <shop>",
		Short: "Buy from a shop",
		Long: `Open a shop as the buyer and purchase one trade, or --times trades.
Buying stops at the first refused purchase.

Example:
  marketcraft buy Bob Alice gems
  marketcraft buy Bob Alice gems --times 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if times < 1 {
				return NewExitError(ExitCommandError, "--times must be at least 1")
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				buyer, err := a.player(args[0])
				if err != nil {
					return err
				}
				owner, err := a.player(args[1])
				if err != nil {
					return err
				}
				view, err := a.market.OpenShop(a.ctx, buyer.ID, owner.ID, args[2])
				if err != nil {
					return a.finish("", nil, err)
				}
				return a.buyFrom(view, owner.Name, times)
			})
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "number of trades to buy")
	return cmd
}

// buyFrom performs up to times purchases through an open view and closes it.
func (a *app) buyFrom(view *market.ShopView, ownerName string, times int) error {
	defer view.Close()

	summary := purchaseSummary{Shop: shopLabel(ownerName, view.Shop())}
	var err error
	for i := 0; i < times; i++ {
		if _, err = view.Buy(a.ctx); err != nil {
			break
		}
		summary.Bought++
	}
	summary.Stock = view.Stock()

	text := fmt.Sprintf("Bought %d from %s. %s", summary.Bought, summary.Shop, market.StockLabel(summary.Stock))
	return a.finish(text, summary, err)
}
