// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/redirector/internal/adapters/config"
	_ "go.trai.ch/redirector/internal/adapters/logger"
	_ "go.trai.ch/redirector/internal/adapters/sandbox"
	_ "go.trai.ch/redirector/internal/adapters/state"
	_ "go.trai.ch/redirector/internal/adapters/verifier"
	// Register app nodes.
	_ "go.trai.ch/redirector/internal/app"
)
