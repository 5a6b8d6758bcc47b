package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/identity"
)

// NewPlayerCommand creates the player command group.
func NewPlayerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Register and list players",
	}
	cmd.AddCommand(newPlayerAddCommand(rootOpts))
	cmd.AddCommand(newPlayerListCommand(rootOpts))
	return cmd
}

func newPlayerAddCommand(rootOpts *RootOptions) *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a player",
		Long: `Register a player. Registering an existing name keeps its id and
updates the admin flag.

Example:
  marketcraft player add Alice
  marketcraft player add Op --admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				p, err := a.market.Players().Register(a.ctx, args[0], admin)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to register player", err)
				}
				return a.out.Result(describePlayer(p), p, nil)
			})
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")
	return cmd
}

func newPlayerListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(a *app) error {
				players, err := a.market.Players().List(a.ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list players", err)
				}
				lines := make([]string, 0, len(players))
				for _, p := range players {
					lines = append(lines, describePlayer(p))
				}
				if len(lines) == 0 {
					lines = append(lines, "No players registered.")
				}
				return a.out.Result(strings.Join(lines, "\n"), players, nil)
			})
		},
	}
}

func describePlayer(p identity.Player) string {
	s := fmt.Sprintf("%s %s", p.Name, p.ID)
	if p.Admin {
		s += " (admin)"
	}
	return s
}
