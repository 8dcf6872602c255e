package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
	id                 TEXT PRIMARY KEY,
	created_at         TEXT NOT NULL,
	status             TEXT NOT NULL,
	account_name       TEXT NOT NULL,
	message_id         TEXT NOT NULL,
	sender             TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	role               TEXT NOT NULL DEFAULT '',
	summary            TEXT NOT NULL DEFAULT '',
	requires_action    INTEGER NOT NULL DEFAULT 0,
	priority           INTEGER NOT NULL DEFAULT 3,
	duration_minutes   INTEGER NOT NULL DEFAULT 0,
	next_step          TEXT NOT NULL DEFAULT '',
	planned_start      TEXT,
	planned_end        TEXT,
	calendar_event_uid TEXT NOT NULL DEFAULT ''
);
`

// SQLiteStore persists the store in a local SQLite database file.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	settings, err := s.GetSettings()
	if err != nil || settings.DayStart == "" {
		defaults := models.Settings{
			DayStart:           constants.DefaultDayStart,
			DayEnd:             constants.DefaultDayEnd,
			DefaultDurationMin: constants.ActionableDurationMin,
			Timezone:           "Local",
		}
		if err := s.SaveSettings(defaults); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'assistant init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Schema creation is idempotent; running it on load picks up new tables
	// after upgrades.
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) GetSettings() (models.Settings, error) {
	if s.db == nil {
		return models.Settings{}, fmt.Errorf("storage not loaded")
	}

	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	var settings models.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case "day_start":
			settings.DayStart = value
		case "day_end":
			settings.DayEnd = value
		case "default_duration_min":
			settings.DefaultDurationMin, _ = strconv.Atoi(value)
		case "timezone":
			settings.Timezone = value
		}
	}

	return settings, rows.Err()
}

func (s *SQLiteStore) SaveSettings(settings models.Settings) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	pairs := map[string]string{
		"day_start":            settings.DayStart,
		"day_end":              settings.DayEnd,
		"default_duration_min": strconv.Itoa(settings.DefaultDurationMin),
		"timezone":             settings.Timezone,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range pairs {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListProposals() ([]models.Proposal, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, status, account_name, message_id, sender, subject,
		       role, summary, requires_action, priority, duration_minutes, next_step,
		       planned_start, planned_end, calendar_event_uid
		FROM proposals ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

func (s *SQLiteStore) SaveProposals(proposals []models.Proposal) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Whole-collection replace keeps the write-all contract of Provider.
	if _, err := tx.Exec(`DELETE FROM proposals`); err != nil {
		return err
	}

	for _, p := range proposals {
		if _, err := tx.Exec(`
			INSERT INTO proposals (id, created_at, status, account_name, message_id, sender, subject,
			                       role, summary, requires_action, priority, duration_minutes, next_step,
			                       planned_start, planned_end, calendar_event_uid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.CreatedAt.UTC().Format(time.RFC3339Nano), string(p.Status), p.AccountName, p.MessageID,
			p.Sender, p.Subject, p.Role, p.Summary, p.RequiresAction, p.Priority, p.DurationMin,
			p.NextStep, nullableTime(p.PlannedStart), nullableTime(p.PlannedEnd), p.CalendarEventUID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (models.Proposal, error) {
	var p models.Proposal
	var createdAt, status string
	var plannedStart, plannedEnd sql.NullString

	err := row.Scan(
		&p.ID, &createdAt, &status, &p.AccountName, &p.MessageID, &p.Sender, &p.Subject,
		&p.Role, &p.Summary, &p.RequiresAction, &p.Priority, &p.DurationMin, &p.NextStep,
		&plannedStart, &plannedEnd, &p.CalendarEventUID,
	)
	if err != nil {
		return models.Proposal{}, err
	}

	p.Status = models.ProposalStatus(status)
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Proposal{}, fmt.Errorf("invalid created_at for proposal %s: %w", p.ID, err)
	}
	if p.PlannedStart, err = parseNullableTime(plannedStart); err != nil {
		return models.Proposal{}, fmt.Errorf("invalid planned_start for proposal %s: %w", p.ID, err)
	}
	if p.PlannedEnd, err = parseNullableTime(plannedEnd); err != nil {
		return models.Proposal{}, fmt.Errorf("invalid planned_end for proposal %s: %w", p.ID, err)
	}

	return p, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
