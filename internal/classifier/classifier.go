package classifier

import (
	"strings"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

// Request carries the message fields available for triage.
type Request struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender,omitempty"`
}

// keywordRoles maps the first keyword hit to a role. Order matters: earlier
// entries win.
var keywordRoles = []struct {
	keyword string
	role    string
}{
	{"thesis", "THESIS"},
	{"dissertation", "THESIS"},
	{"professor", "PROFESSOR"},
	{"student", "PROFESSOR"},
	{"invoice", "STARTUP"},
	{"startup", "STARTUP"},
	{"shift", "EMPLOYMENT"},
	{"rota", "EMPLOYMENT"},
	{"exam", "SCHOOL"},
	{"school", "SCHOOL"},
	{"assistant", "ASSISTANT"},
}

var actionTokens = []string{"please", "urgent", "deadline", "term", "reply", "respond", "confirm"}

// Classifier triages inbound messages into a role, an action flag, and a
// suggested duration/priority. An LLM backend is consulted when configured;
// any failure falls back to the deterministic heuristic.
type Classifier struct {
	llm *ollamaClient
}

// New builds a classifier from the OLLAMA_* environment variables. Without
// OLLAMA_ENABLED=true the heuristic runs alone.
func New() *Classifier {
	return &Classifier{llm: ollamaFromEnv()}
}

// Classify never fails: a degraded or absent LLM backend degrades to the
// heuristic result.
func (c *Classifier) Classify(req Request) models.Classification {
	if c.llm != nil {
		if result, ok := c.llm.classify(req); ok {
			return result
		}
	}
	return Heuristic(req)
}

// Heuristic is the deterministic fallback classification.
func Heuristic(req Request) models.Classification {
	text := strings.ToLower(req.Subject + " " + req.Body + " " + req.Sender)

	role := "PERSONAL"
	for _, entry := range keywordRoles {
		if strings.Contains(text, entry.keyword) {
			role = entry.role
			break
		}
	}

	requiresAction := false
	for _, token := range actionTokens {
		if strings.Contains(text, token) {
			requiresAction = true
			break
		}
	}

	priority := 2
	if strings.Contains(text, "urgent") || strings.Contains(text, "asap") {
		priority = 4
	} else if requiresAction {
		priority = 3
	}

	duration := constants.FYIDurationMin
	if requiresAction {
		duration = constants.ActionableDurationMin
	}

	summary := strings.TrimSpace(req.Subject)
	if summary == "" {
		summary = strings.TrimSpace(req.Body)
		if len(summary) > 120 {
			summary = summary[:120]
		}
	}
	if summary == "" {
		summary = "Email without clear content."
	}

	return models.Classification{
		Role:                 role,
		RequiresAction:       requiresAction,
		SuggestedDurationMin: duration,
		Priority:             priority,
		Summary:              summary,
	}
}
