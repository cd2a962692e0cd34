package verifier

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/redirector/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/redirector/internal/core/ports"
)

// NodeID is the unique identifier for the stream verifier Graft node.
const NodeID graft.ID = "adapter.verifier"

func init() {
	graft.Register(graft.Node[ports.StreamVerifier]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.StreamVerifier, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
