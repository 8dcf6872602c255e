package storage

import (
	"fmt"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

// MemoryStore is an in-process Provider used by tests.
type MemoryStore struct {
	settings  models.Settings
	proposals []models.Proposal
	loaded    bool

	// SaveErr, when set, fails the next SaveProposals call. Lets tests
	// exercise the persistence-failure path.
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init() error {
	s.settings = models.Settings{
		DayStart:           constants.DefaultDayStart,
		DayEnd:             constants.DefaultDayEnd,
		DefaultDurationMin: constants.ActionableDurationMin,
		Timezone:           "Local",
	}
	s.loaded = true
	return nil
}

func (s *MemoryStore) Load() error {
	s.loaded = true
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) GetSettings() (models.Settings, error) {
	if !s.loaded {
		return models.Settings{}, fmt.Errorf("storage not loaded")
	}
	return s.settings, nil
}

func (s *MemoryStore) SaveSettings(settings models.Settings) error {
	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}
	s.settings = settings
	return nil
}

func (s *MemoryStore) ListProposals() ([]models.Proposal, error) {
	if !s.loaded {
		return nil, fmt.Errorf("storage not loaded")
	}
	proposals := make([]models.Proposal, len(s.proposals))
	copy(proposals, s.proposals)
	return proposals, nil
}

func (s *MemoryStore) SaveProposals(proposals []models.Proposal) error {
	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}
	if s.SaveErr != nil {
		err := s.SaveErr
		s.SaveErr = nil
		return err
	}
	s.proposals = make([]models.Proposal, len(proposals))
	copy(s.proposals, proposals)
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}
