// Package commands implements the CLI commands for redirector.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// resolveCmdName is the hidden command that receives the caller arguments.
const resolveCmdName = "resolve"

// CLI represents the command line interface for redirector.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	args    []string
}

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, args []string) error
	StateShow(w io.Writer) error
	StateClear() error
	StatePlayer(hint string) error
	Health(ctx context.Context, w io.Writer) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:   "redirector [resolver args...]",
		Short: "Resolve media page URLs into playable stream URLs",
		Long: "redirector stands in for the host's resolver tool. Given the tool's\n" +
			"arguments it prints one verified stream URL, or nothing and a non-zero\n" +
			"exit code. Arguments without a media URL are passed to the native tool.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newStateCmd())
	rootCmd.AddCommand(c.newHealthCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the command selected by the arguments with the given context.
// Anything that is not a maintenance command is resolved.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	c.rootCmd.SetArgs(c.route(c.args))
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.args = args
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) route(args []string) []string {
	if len(args) > 0 {
		for _, cmd := range c.rootCmd.Commands() {
			if cmd.Name() == args[0] && cmd.Name() != resolveCmdName {
				return args
			}
		}
	}
	return append([]string{resolveCmdName}, args...)
}
