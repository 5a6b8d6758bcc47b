package cli

import (
	"github.com/spf13/cobra"
)

// NewAdminCommand creates the admin command group. Every subcommand names
// the acting administrator first.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator overrides",
	}
	cmd.AddCommand(newAdminRemoveShopCommand(rootOpts))
	cmd.AddCommand(newAdminRemoveSignCommand(rootOpts))
	return cmd
}

func newAdminRemoveShopCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-shop <admin> <owner> <shop>",
		Short: "Remove any player's shop, even with a stocked vault",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				admin, err := a.player(args[0])
				if err != nil {
					return err
				}
				removal, err := a.market.AdminRemoveShop(a.ctx, admin.ID, args[1], args[2])
				return a.finish("", removal, err)
			})
		},
	}
}

func newAdminRemoveSignCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-sign <admin> <world,x,y,z>",
		Short: "Remove any sign link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseLocation(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				admin, err := a.player(args[0])
				if err != nil {
					return err
				}
				return a.finish("", nil, a.market.AdminUnlinkSign(a.ctx, admin.ID, loc))
			})
		},
	}
}
