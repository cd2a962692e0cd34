package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/redirector/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/sandbox"  //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/state"    //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/verifier" //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			state.NodeID,
			verifier.NodeID,
			sandbox.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.StateStore](ctx)
	if err != nil {
		return nil, err
	}
	verify, err := graft.Dep[ports.StreamVerifier](ctx)
	if err != nil {
		return nil, err
	}
	runner, err := graft.Dep[ports.ProcessRunner](ctx)
	if err != nil {
		return nil, err
	}
	base, err := config.ResolveBaseDir()
	if err != nil {
		return nil, err
	}
	return New(loader, log, store, verify, runner, base), nil
}
