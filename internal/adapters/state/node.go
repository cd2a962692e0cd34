package state

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/redirector/internal/adapters/config" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/redirector/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
)

// NodeID is the unique identifier for the state store Graft node.
const NodeID graft.ID = "adapter.state_store"

func init() {
	graft.Register(graft.Node[ports.StateStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.StateStore, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			base, err := config.ResolveBaseDir()
			if err != nil {
				return nil, err
			}
			store, err := NewStore(domain.StatePath(base), log)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
	})
}
