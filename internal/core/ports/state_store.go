package ports

import "go.trai.ch/redirector/internal/core/domain"

// StateStore defines the repository holding the persistent resolution state.
//
//go:generate mockgen -source=state_store.go -destination=mocks/mock_state_store.go -package=mocks
type StateStore interface {
	// Load returns the current document. It never fails; an unreadable
	// document yields a fresh state.
	Load() *domain.State

	// Save replaces the document.
	Save(state *domain.State) error
}
