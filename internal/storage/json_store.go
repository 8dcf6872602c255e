package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

type jsonFile struct {
	Version   int               `json:"version"`
	Settings  models.Settings   `json:"settings"`
	Proposals []models.Proposal `json:"proposals"`
}

// JSONStore persists the whole store as a single JSON document. Writes go
// through a temp file and rename so readers never observe a partial store.
type JSONStore struct {
	path string
	file *jsonFile
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.file = &jsonFile{
		Version: 1,
		Settings: models.Settings{
			DayStart:           constants.DefaultDayStart,
			DayEnd:             constants.DefaultDayEnd,
			DefaultDurationMin: constants.ActionableDurationMin,
			Timezone:           "Local",
		},
		Proposals: []models.Proposal{},
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'assistant init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.file = &jsonFile{}
	if err := json.Unmarshal(data, s.file); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	if s.file.Proposals == nil {
		s.file.Proposals = []models.Proposal{}
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}

	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	if s.file == nil {
		return models.Settings{}, fmt.Errorf("storage not loaded")
	}
	return s.file.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	if s.file == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.file.Settings = settings
	return s.save()
}

func (s *JSONStore) ListProposals() ([]models.Proposal, error) {
	if s.file == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	proposals := make([]models.Proposal, len(s.file.Proposals))
	copy(proposals, s.file.Proposals)
	return proposals, nil
}

func (s *JSONStore) SaveProposals(proposals []models.Proposal) error {
	if s.file == nil {
		return fmt.Errorf("storage not loaded")
	}

	s.file.Proposals = make([]models.Proposal, len(proposals))
	copy(s.file.Proposals, proposals)
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
