package commands

import "github.com/spf13/cobra"

func (c *CLI) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the resolver tools and the remote resolver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Health(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
