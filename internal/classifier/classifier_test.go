package classifier

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

func TestHeuristic_RoleKeywords(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"Question about your thesis chapter", "THESIS"},
		{"Professor office hours moved", "PROFESSOR"},
		{"Invoice #42 attached", "STARTUP"},
		{"Next week's shift schedule", "EMPLOYMENT"},
		{"Exam registration closes Friday", "SCHOOL"},
		{"Your assistant drafted a plan", "ASSISTANT"},
		{"Lunch on Sunday?", "PERSONAL"},
	}

	for _, tc := range cases {
		got := Heuristic(Request{Subject: tc.subject})
		if got.Role != tc.want {
			t.Errorf("Subject %q: expected role %s, got %s", tc.subject, tc.want, got.Role)
		}
	}
}

func TestHeuristic_ActionAndPriority(t *testing.T) {
	urgent := Heuristic(Request{Subject: "URGENT: please reply today"})
	if !urgent.RequiresAction {
		t.Error("Expected urgent mail to require action")
	}
	if urgent.Priority != 4 {
		t.Errorf("Expected priority 4 for urgent mail, got %d", urgent.Priority)
	}
	if urgent.SuggestedDurationMin != 45 {
		t.Errorf("Expected 45m for actionable mail, got %d", urgent.SuggestedDurationMin)
	}

	fyi := Heuristic(Request{Subject: "Newsletter, March edition"})
	if fyi.RequiresAction {
		t.Error("Expected newsletter not to require action")
	}
	if fyi.Priority != 2 || fyi.SuggestedDurationMin != 20 {
		t.Errorf("Expected priority 2 / 20m for FYI mail, got %d / %d", fyi.Priority, fyi.SuggestedDurationMin)
	}
}

func TestHeuristic_SummaryFallbacks(t *testing.T) {
	fromBody := Heuristic(Request{Body: "A short body."})
	if fromBody.Summary != "A short body." {
		t.Errorf("Expected body summary, got %q", fromBody.Summary)
	}

	empty := Heuristic(Request{})
	if empty.Summary != "Email without clear content." {
		t.Errorf("Expected placeholder summary, got %q", empty.Summary)
	}
}

func TestHeuristic_IsDeterministic(t *testing.T) {
	req := Request{Subject: "Please confirm the deadline", Body: "thesis draft"}
	first := Heuristic(req)
	for i := 0; i < 5; i++ {
		if got := Heuristic(req); got != first {
			t.Fatalf("Heuristic not deterministic: %+v vs %+v", got, first)
		}
	}
}

func newOllamaTestClassifier(url string) *Classifier {
	return &Classifier{llm: &ollamaClient{
		url:    url,
		model:  "test",
		client: &http.Client{Timeout: time.Second},
	}}
}

func TestClassify_UsesLLMResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {"role": "assistant", "content": "{\"role\": \"SCHOOL\", \"requires_action\": true, \"suggested_duration_minutes\": 30, \"priority\": 5, \"summary\": \"Register now\"}"}}`))
	}))
	defer server.Close()

	got := newOllamaTestClassifier(server.URL).Classify(Request{Subject: "anything"})
	if got.Role != "SCHOOL" || got.Priority != 5 || got.SuggestedDurationMin != 30 {
		t.Errorf("Expected LLM result to win, got %+v", got)
	}
}

func TestClassify_FallsBackOnMalformedLLMOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {"role": "assistant", "content": "not json at all"}}`))
	}))
	defer server.Close()

	got := newOllamaTestClassifier(server.URL).Classify(Request{Subject: "exam tomorrow, please reply"})
	want := Heuristic(Request{Subject: "exam tomorrow, please reply"})
	if got != want {
		t.Errorf("Expected heuristic fallback, got %+v want %+v", got, want)
	}
}

func TestClassify_FallsBackOnOutOfBoundsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {"role": "assistant", "content": "{\"role\": \"SCHOOL\", \"requires_action\": true, \"suggested_duration_minutes\": 9999, \"priority\": 12, \"summary\": \"x\"}"}}`))
	}))
	defer server.Close()

	got := newOllamaTestClassifier(server.URL).Classify(Request{Subject: "hello"})
	if got.Priority < 1 || got.Priority > 5 {
		t.Errorf("Expected bounded fallback classification, got %+v", got)
	}
}

func TestClassify_FallsBackWhenUnreachable(t *testing.T) {
	got := newOllamaTestClassifier("http://127.0.0.1:1").Classify(Request{Subject: "urgent shift swap"})
	var want models.Classification = Heuristic(Request{Subject: "urgent shift swap"})
	if got != want {
		t.Errorf("Expected heuristic when LLM unreachable, got %+v", got)
	}
}
