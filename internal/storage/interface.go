package storage

import "github.com/Jackob-K/personal-ai-infra/internal/models"

// Provider is the persistence backend for the proposal store. The contract
// is read-all/write-all: SaveProposals atomically replaces the whole
// collection, and a crash mid-write must never leave a partially written
// store observable to readers. Callers (the proposals service) serialize
// read-modify-write cycles; providers do not need their own locking beyond
// what the backend gives them.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Proposals
	ListProposals() ([]models.Proposal, error)
	SaveProposals([]models.Proposal) error

	// Utils
	GetConfigPath() string
}
