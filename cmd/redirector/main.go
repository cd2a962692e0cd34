// Package main is the entry point for redirector.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/redirector/cmd/redirector/commands"
	"go.trai.ch/redirector/internal/app"
	"go.trai.ch/redirector/internal/core/domain"
	_ "go.trai.ch/redirector/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	provider ComponentProvider,
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	cli := commands.New(components.App.WithOutput(stdout))
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	return exitCode(cli.Execute(ctx), components)
}

// exitCode maps the command error onto the process exit code. Resolution
// failures and unhealthy checks have already been reported and exit quietly.
func exitCode(err error, components *app.Components) int {
	if err == nil {
		return 0
	}

	var status *domain.ExitStatusError
	switch {
	case errors.As(err, &status):
		return status.Code
	case errors.Is(err, domain.ErrAllTiersFailed), errors.Is(err, domain.ErrUnhealthy):
		return 1
	}

	components.Logger.Error(err)
	return 1
}
