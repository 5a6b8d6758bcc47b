package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/market"
)

// NewSignCommand creates the sign command group.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Link shop signs and use them",
		Long: `Signs are shop entrances placed in the world. A sign can be linked
when its front line reads "Marketcraft" and it is waxed. Locations are
written as world,x,y,z.`,
	}
	cmd.AddCommand(newSignLinkCommand(rootOpts))
	cmd.AddCommand(newSignUnlinkCommand(rootOpts))
	cmd.AddCommand(newSignUseCommand(rootOpts))
	cmd.AddCommand(newSignBreakCommand(rootOpts))
	cmd.AddCommand(newSignListCommand(rootOpts))
	return cmd
}

func parseLocation(text string) (market.Location, error) {
	loc, err := market.ParseLocation(text)
	if err != nil {
		return market.Location{}, WrapExitError(ExitCommandError, "invalid location", err)
	}
	return loc, nil
}

func newSignLinkCommand(rootOpts *RootOptions) *cobra.Command {
	var text string
	var waxed bool
	cmd := &cobra.Command{
		Use:   "link <owner> <shop> <world,x,y,z>",
		Short: "Link a sign to one of the owner's shops",
		Long: `Link a sign to one of the owner's shops.

Example:
  marketcraft sign link Alice gems world,10,64,-3 --waxed`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseLocation(args[2])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				sign := market.Sign{Location: loc, FrontLine: text, Waxed: waxed}
				link, err := a.market.LinkSign(a.ctx, owner.ID, sign, args[1])
				return a.finish("", link, err)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", market.SignHeader, "front line of the sign")
	cmd.Flags().BoolVar(&waxed, "waxed", false, "the sign is waxed")
	return cmd
}

func newSignUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <player> <world,x,y,z>",
		Short: "Remove one of the player's sign links",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseLocation(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.player(args[0])
				if err != nil {
					return err
				}
				return a.finish("", nil, a.market.UnlinkSign(a.ctx, p.ID, loc))
			})
		},
	}
}

func newSignUseCommand(rootOpts *RootOptions) *cobra.Command {
	var buy int
	cmd := &cobra.Command{
		Use:   "use <player> <world,x,y,z>",
		Short: "Open the shop behind a sign",
		Long: `Open the shop behind a sign and show its stock. With --buy, purchase
that many trades before closing it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseLocation(args[1])
			if err != nil {
				return err
			}
			if buy < 0 {
				return NewExitError(ExitCommandError, "--buy must not be negative")
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.player(args[0])
				if err != nil {
					return err
				}
				view, err := a.market.UseSign(a.ctx, p.ID, loc)
				if err != nil {
					return a.finish("", nil, err)
				}
				ownerName := a.playerName(view.Shop().Owner)
				if buy > 0 {
					return a.buyFrom(view, ownerName, buy)
				}
				defer view.Close()
				summary := purchaseSummary{Shop: shopLabel(ownerName, view.Shop()), Stock: view.Stock()}
				text := fmt.Sprintf("%s sells %s for %s. %s", summary.Shop,
					view.Shop().Offered, view.Shop().Required, market.StockLabel(summary.Stock))
				return a.finish(text, summary, nil)
			})
		},
	}
	cmd.Flags().IntVar(&buy, "buy", 0, "number of trades to buy")
	return cmd
}

func newSignBreakCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "break <player> <world,x,y,z>",
		Short: "Check whether a player may break a sign",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseLocation(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.player(args[0])
				if err != nil {
					return err
				}
				err = a.market.BreakSign(a.ctx, p.ID, loc)
				return a.finish("The sign can be broken.", nil, err)
			})
		},
	}
}

func newSignListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List an owner's sign links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				owner, err := a.player(args[0])
				if err != nil {
					return err
				}
				links, err := a.market.Signs(a.ctx, owner.ID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list signs", err)
				}
				if len(links) == 0 {
					return a.out.Result(fmt.Sprintf("%s has no signs.", owner.Name), links, nil)
				}
				lines := make([]string, 0, len(links))
				for _, l := range links {
					lines = append(lines, fmt.Sprintf("%s -> %s", l.Location.Key(), l.Shop))
				}
				return a.out.Result(strings.Join(lines, "\n"), links, nil)
			})
		},
	}
}
