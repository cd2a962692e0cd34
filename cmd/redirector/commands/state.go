package commands

import "github.com/spf13/cobra"

func (c *CLI) newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the resolution state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.StateShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cache, circuits and escalations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.StateShow(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget cached results, circuits and escalations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.app.StateClear()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "player <avpro|unity|unknown>",
		Short:     "Record the player the current session is using",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"avpro", "unity", "unknown"},
		RunE: func(_ *cobra.Command, args []string) error {
			return c.app.StatePlayer(args[0])
		},
	})

	return cmd
}
