package commands

import "github.com/spf13/cobra"

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:                resolveCmdName + " [resolver args...]",
		Short:              "Resolve the media URL in the arguments",
		Hidden:             true,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Resolve(cmd.Context(), args)
		},
	}
}
