package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

// DayWindow bounds the schedulable part of a day.
type DayWindow struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

// TravelDefaults holds fallback travel durations used when no travel
// provider is configured or reachable.
type TravelDefaults struct {
	OneWayMinutes int `json:"one_way_minutes"`
}

// RoleConfig customizes per-role behavior, currently the suggested next step
// template attached to new proposals.
type RoleConfig struct {
	NextStep string `json:"next_step,omitempty"`
}

// PlannerConfig is the external configuration consumed by the planner and
// the ingestion flow. It is trusted input.
type PlannerConfig struct {
	DayWindow       DayWindow               `json:"day_window"`
	FixedBlockRules []models.FixedBlockRule `json:"fixed_block_rules"`
	TravelDefaults  TravelDefaults          `json:"travel_defaults"`
	Roles           map[string]RoleConfig   `json:"roles,omitempty"`
}

// Loader reads planner configuration from a JSON file. The file is re-read
// on every Load call so edits take effect without a restart; a missing file
// yields the built-in defaults.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given config path. An empty path means
// "defaults only".
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the configured file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and parses the planner config file.
func (l *Loader) Load() (PlannerConfig, error) {
	cfg := Defaults()
	if l.path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read planner config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("failed to parse planner config: %w", err)
	}

	if cfg.DayWindow.Start == "" {
		cfg.DayWindow.Start = constants.DefaultDayStart
	}
	if cfg.DayWindow.End == "" {
		cfg.DayWindow.End = constants.DefaultDayEnd
	}
	if cfg.TravelDefaults.OneWayMinutes <= 0 {
		cfg.TravelDefaults.OneWayMinutes = constants.DefaultTravelMinutes
	}

	return cfg, nil
}

// Defaults returns the built-in planner configuration.
func Defaults() PlannerConfig {
	return PlannerConfig{
		DayWindow: DayWindow{
			Start: constants.DefaultDayStart,
			End:   constants.DefaultDayEnd,
		},
		TravelDefaults: TravelDefaults{OneWayMinutes: constants.DefaultTravelMinutes},
	}
}
