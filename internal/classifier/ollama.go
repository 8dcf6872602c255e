package classifier

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

type ollamaClient struct {
	url    string
	model  string
	client *http.Client
}

func ollamaFromEnv() *ollamaClient {
	if strings.ToLower(os.Getenv("OLLAMA_ENABLED")) != "true" {
		return nil
	}

	url := os.Getenv("OLLAMA_URL")
	if url == "" {
		url = "http://localhost:11434"
	}
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "llama3:8b"
	}

	return &ollamaClient{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// classify asks the chat endpoint for a JSON triage result. The bool result
// is false whenever the backend is unreachable or returns something the
// caller cannot trust, so the heuristic can take over.
func (c *ollamaClient) classify(req Request) (models.Classification, bool) {
	prompt := "Classify this email into one role from: THESIS, PROFESSOR, EMPLOYMENT, STARTUP, SCHOOL, ASSISTANT, PERSONAL. " +
		"Return JSON with keys role, requires_action, suggested_duration_minutes, priority, summary.\n\n" +
		"Subject: " + req.Subject + "\nBody: " + req.Body + "\nSender: " + req.Sender

	body, err := json.Marshal(ollamaChatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: "You are an email triage assistant. Output valid JSON only."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return models.Classification{}, false
	}

	resp, err := c.client.Post(c.url+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Debug("Ollama unreachable, using heuristic", "error", err)
		return models.Classification{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("Ollama returned non-OK status", "status", resp.StatusCode)
		return models.Classification{}, false
	}

	var chat ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return models.Classification{}, false
	}

	var result models.Classification
	if err := json.Unmarshal([]byte(chat.Message.Content), &result); err != nil {
		logger.Debug("Ollama response was not valid JSON", "error", err)
		return models.Classification{}, false
	}

	if result.Role == "" ||
		result.Priority < constants.MinPriority || result.Priority > constants.MaxPriority ||
		result.SuggestedDurationMin < 1 || result.SuggestedDurationMin > constants.MaxDurationMin {
		return models.Classification{}, false
	}

	return result, true
}
