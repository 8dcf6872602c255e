package calendar

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jackob-K/personal-ai-infra/internal/keyring"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
)

// Client PUTs single-event ICS documents to a CalDAV collection. A client
// without a configured URL or credentials is valid and declines every
// request with an empty uid, which callers treat as a soft failure.
type Client struct {
	calendarURL string
	username    string
	password    string
	timezone    string
	httpClient  *http.Client
}

// Config holds CalDAV connection settings.
type Config struct {
	CalendarURL string
	Username    string
	Password    string
	Timezone    string
}

func New(cfg Config) *Client {
	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "Europe/Prague"
	}
	return &Client{
		calendarURL: strings.TrimRight(strings.TrimSpace(cfg.CalendarURL), "/"),
		username:    strings.TrimSpace(cfg.Username),
		password:    cfg.Password,
		timezone:    timezone,
		httpClient:  &http.Client{Timeout: 12 * time.Second},
	}
}

// NewFromEnv builds a client from the CALDAV_* environment variables, with
// the OS keyring as password fallback.
func NewFromEnv() *Client {
	password := os.Getenv("CALDAV_PASSWORD")
	if password == "" {
		if fromKeyring, err := keyring.GetSecret(keyring.CalDAVPassword); err == nil {
			password = fromKeyring
		}
	}

	return New(Config{
		CalendarURL: os.Getenv("CALDAV_CALENDAR_URL"),
		Username:    os.Getenv("CALDAV_USERNAME"),
		Password:    password,
		Timezone:    os.Getenv("CALDAV_TIMEZONE"),
	})
}

// Configured reports whether the client has everything it needs to talk to
// the server.
func (c *Client) Configured() bool {
	return c.calendarURL != "" && c.username != "" && c.password != ""
}

// CreateEvent uploads a new event and returns its uid. An unconfigured or
// unreachable server yields ("", nil): the caller's decision already stands
// and must not fail because of the calendar.
func (c *Client) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	if !c.Configured() {
		return "", nil
	}

	eventUID := uuid.NewString()
	eventURL := fmt.Sprintf("%s/%s.ics", c.calendarURL, eventUID)
	payload := renderICS(eventUID, summary, description, start, end, c.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, eventURL, strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("CalDAV PUT failed", "error", err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("CalDAV PUT rejected", "status", resp.StatusCode)
		return "", nil
	}

	return eventUID, nil
}

func renderICS(uid, summary, description string, start, end time.Time, timezone string) string {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//personal-ai-infra//assistant//EN",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + stamp,
		fmt.Sprintf("DTSTART;TZID=%s:%s", timezone, start.Format("20060102T150405")),
		fmt.Sprintf("DTEND;TZID=%s:%s", timezone, end.Format("20060102T150405")),
		"SUMMARY:" + escapeICS(summary),
		"DESCRIPTION:" + escapeICS(description),
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}
	return strings.Join(lines, "\r\n")
}

// escapeICS escapes text per RFC 5545 section 3.3.11.
func escapeICS(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return replacer.Replace(value)
}
