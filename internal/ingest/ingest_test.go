package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/mail"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/planner"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
	"github.com/Jackob-K/personal-ai-infra/internal/storage"
)

type fakeFetcher struct {
	messages []mail.Message
}

func (f *fakeFetcher) FetchAll(accounts []config.InboxAccount, maxPerAccount int) []mail.Message {
	return f.messages
}

type heuristicClassifier struct{}

func (heuristicClassifier) Classify(req classifier.Request) models.Classification {
	return classifier.Heuristic(req)
}

func newTestFlow(t *testing.T, messages []mail.Message) (*Flow, *proposals.Service) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	svc := proposals.NewService(store, planner.New(config.NewLoader("")), nil)
	flow := NewFlow(&fakeFetcher{messages: messages}, heuristicClassifier{}, svc, config.NewLoader(""))
	flow.now = func() time.Time { return time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC) }
	return flow, svc
}

func TestRun_ActionableEmailBecomesPendingProposal(t *testing.T) {
	flow, svc := newTestFlow(t, []mail.Message{{
		AccountName: "personal",
		MessageID:   "<thesis-1@example.org>",
		Sender:      "Dr. Nguyen <nguyen@uni.example>",
		Subject:     "Please send the thesis chapter",
		Body:        "Deadline is Friday.",
	}})

	result, err := flow.Run(nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EmailsFetched != 1 || result.ProposalsCreated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	pending, err := svc.List(models.ProposalPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending proposal, got %d", len(pending))
	}

	p := pending[0]
	if p.AccountName != "personal" || p.MessageID != "<thesis-1@example.org>" {
		t.Errorf("natural key not carried over: %+v", p)
	}
	if p.Role != "THESIS" {
		t.Errorf("role = %q, want THESIS", p.Role)
	}
	if !p.RequiresAction {
		t.Error("proposal must require action")
	}
	if p.DurationMin != 45 {
		t.Errorf("duration = %d, want 45", p.DurationMin)
	}
	if !strings.Contains(p.NextStep, "thesis") {
		t.Errorf("next step should use the thesis template, got %q", p.NextStep)
	}
	if p.ID == "" {
		t.Error("proposal needs a generated id")
	}
}

func TestRun_NonActionableEmailIsDropped(t *testing.T) {
	flow, svc := newTestFlow(t, []mail.Message{{
		AccountName: "personal",
		MessageID:   "<news-1@example.org>",
		Subject:     "Newsletter, March edition",
		Body:        "Nothing to do here.",
	}})

	result, err := flow.Run(nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EmailsFetched != 1 {
		t.Errorf("emails fetched = %d", result.EmailsFetched)
	}
	if result.ProposalsCreated != 0 {
		t.Errorf("non-actionable email must not create a proposal, got %d", result.ProposalsCreated)
	}

	all, err := svc.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("store should stay empty, got %d proposals", len(all))
	}
}

func TestRun_SecondRunRefreshesInsteadOfDuplicating(t *testing.T) {
	messages := []mail.Message{{
		AccountName: "personal",
		MessageID:   "<thesis-1@example.org>",
		Subject:     "Please send the thesis chapter",
		Body:        "Deadline is Friday.",
	}}
	flow, svc := newTestFlow(t, messages)

	if _, err := flow.Run(nil, 10); err != nil {
		t.Fatal(err)
	}
	result, err := flow.Run(nil, 10)
	if err != nil {
		t.Fatal(err)
	}

	if result.ProposalsCreated != 0 {
		t.Errorf("second run created %d proposals, want 0", result.ProposalsCreated)
	}
	if result.ProposalsRefreshed != 1 {
		t.Errorf("second run refreshed %d proposals, want 1", result.ProposalsRefreshed)
	}

	all, err := svc.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single proposal after re-ingestion, got %d", len(all))
	}
}

func TestRun_RoleNextStepOverrideFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.json")
	cfgJSON := `{"roles": {"THESIS": {"next_step": "Ping the supervisor first."}}}`
	if err := os.WriteFile(path, []byte(cfgJSON), 0600); err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	svc := proposals.NewService(store, planner.New(config.NewLoader("")), nil)
	flow := NewFlow(&fakeFetcher{messages: []mail.Message{{
		AccountName: "personal",
		MessageID:   "<thesis-2@example.org>",
		Subject:     "thesis outline, please review",
		Body:        "see attachment",
	}}}, heuristicClassifier{}, svc, config.NewLoader(path))

	if _, err := flow.Run(nil, 10); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.List(models.ProposalPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(pending))
	}
	if pending[0].NextStep != "Ping the supervisor first." {
		t.Errorf("config override ignored, next step = %q", pending[0].NextStep)
	}
}

func TestNextStep_FallbackUsesSubject(t *testing.T) {
	step := nextStep(config.Defaults(), "PERSONAL", "Lunch on Sunday?")
	if !strings.Contains(step, "Lunch on Sunday?") {
		t.Errorf("fallback next step should embed the subject, got %q", step)
	}

	long := strings.Repeat("x", 200)
	step = nextStep(config.Defaults(), "PERSONAL", long)
	if strings.Contains(step, long) {
		t.Error("fallback next step must truncate long subjects")
	}
}
