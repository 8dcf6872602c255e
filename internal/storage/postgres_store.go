package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
	id                 TEXT PRIMARY KEY,
	created_at         TIMESTAMPTZ NOT NULL,
	status             TEXT NOT NULL,
	account_name       TEXT NOT NULL,
	message_id         TEXT NOT NULL,
	sender             TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	role               TEXT NOT NULL DEFAULT '',
	summary            TEXT NOT NULL DEFAULT '',
	requires_action    BOOLEAN NOT NULL DEFAULT FALSE,
	priority           INTEGER NOT NULL DEFAULT 3,
	duration_minutes   INTEGER NOT NULL DEFAULT 0,
	next_step          TEXT NOT NULL DEFAULT '',
	planned_start      TIMESTAMPTZ,
	planned_end        TIMESTAMPTZ,
	calendar_event_uid TEXT NOT NULL DEFAULT ''
);
`

// HasEmbeddedCredentials reports whether a PostgreSQL connection string
// carries a password inline. Inline credentials are rejected; use the OS
// keyring, an environment variable, or .pgpass instead.
func HasEmbeddedCredentials(connStr string) bool {
	parsed, err := url.Parse(connStr)
	if err != nil || parsed.User == nil {
		return false
	}
	_, hasPassword := parsed.User.Password()
	return hasPassword
}

// PostgresStore persists the store in a PostgreSQL database.
type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		connStr: connStr,
	}
}

func (s *PostgresStore) Init() error {
	if err := s.open(); err != nil {
		return err
	}

	if _, err := s.db.Exec(postgresSchema); err != nil {
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

func (s *PostgresStore) Load() error {
	if s.db != nil {
		return nil
	}
	if err := s.open(); err != nil {
		return err
	}
	if _, err := s.db.Exec(postgresSchema); err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) open() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) GetSettings() (models.Settings, error) {
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

func (s *PostgresStore) SaveSettings(settings models.Settings) error {
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
			`INSERT INTO settings (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) ListProposals() ([]models.Proposal, error) {
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
		var p models.Proposal
		var status string
		var plannedStart, plannedEnd sql.NullTime

		err := rows.Scan(
			&p.ID, &p.CreatedAt, &status, &p.AccountName, &p.MessageID, &p.Sender, &p.Subject,
			&p.Role, &p.Summary, &p.RequiresAction, &p.Priority, &p.DurationMin, &p.NextStep,
			&plannedStart, &plannedEnd, &p.CalendarEventUID,
		)
		if err != nil {
			return nil, err
		}

		p.Status = models.ProposalStatus(status)
		if plannedStart.Valid {
			t := plannedStart.Time
			p.PlannedStart = &t
		}
		if plannedEnd.Valid {
			t := plannedEnd.Time
			p.PlannedEnd = &t
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

func (s *PostgresStore) SaveProposals(proposals []models.Proposal) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM proposals`); err != nil {
		return err
	}

	for _, p := range proposals {
		if _, err := tx.Exec(`
			INSERT INTO proposals (id, created_at, status, account_name, message_id, sender, subject,
			                       role, summary, requires_action, priority, duration_minutes, next_step,
			                       planned_start, planned_end, calendar_event_uid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			p.ID, p.CreatedAt, string(p.Status), p.AccountName, p.MessageID, p.Sender, p.Subject,
			p.Role, p.Summary, p.RequiresAction, p.Priority, p.DurationMin, p.NextStep,
			pqNullableTime(p.PlannedStart), pqNullableTime(p.PlannedEnd), p.CalendarEventUID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) GetConfigPath() string {
	return s.connStr
}

func pqNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
