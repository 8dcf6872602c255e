package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/mail"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
)

// MailFetcher pulls recent messages from inbox accounts.
type MailFetcher interface {
	FetchAll(accounts []config.InboxAccount, maxPerAccount int) []mail.Message
}

// EmailClassifier turns an email into a classification.
type EmailClassifier interface {
	Classify(req classifier.Request) models.Classification
}

// ProposalUpserter reconciles candidate proposals against the store.
type ProposalUpserter interface {
	Upsert(candidates []models.Proposal) (proposals.UpsertResult, error)
}

// Flow ties the inbox, the classifier, and the proposal store together:
// fetch, classify, keep what needs action, and upsert the rest as pending
// proposals.
type Flow struct {
	fetcher    MailFetcher
	classifier EmailClassifier
	proposals  ProposalUpserter
	cfg        *config.Loader
	now        func() time.Time
}

// Result summarizes one ingestion run.
type Result struct {
	EmailsFetched      int      `json:"emails_fetched"`
	ProposalsCreated   int      `json:"proposals_created"`
	ProposalsRefreshed int      `json:"proposals_refreshed"`
	CreatedIDs         []string `json:"created_ids,omitempty"`
}

func NewFlow(fetcher MailFetcher, cls EmailClassifier, svc ProposalUpserter, cfg *config.Loader) *Flow {
	return &Flow{
		fetcher:    fetcher,
		classifier: cls,
		proposals:  svc,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run executes one ingestion pass. Re-running over the same mailbox state is
// safe: the upsert matches proposals by (account, message id) and refreshes
// them instead of duplicating.
func (f *Flow) Run(accounts []config.InboxAccount, maxPerAccount int) (Result, error) {
	messages := f.fetcher.FetchAll(accounts, maxPerAccount)

	plannerCfg, err := f.cfg.Load()
	if err != nil {
		logger.Warn("planner config unreadable, using defaults", "error", err)
		plannerCfg = config.Defaults()
	}

	var candidates []models.Proposal
	for _, msg := range messages {
		classification := f.classifier.Classify(classifier.Request{
			Subject: msg.Subject,
			Body:    msg.Body,
			Sender:  msg.Sender,
		})
		if !classification.RequiresAction {
			continue
		}
		candidates = append(candidates, f.buildProposal(plannerCfg, msg, classification))
	}

	upserted, err := f.proposals.Upsert(candidates)
	if err != nil {
		return Result{}, err
	}

	logger.Info("ingestion run finished",
		"emails", len(messages),
		"created", upserted.Created,
		"refreshed", upserted.Reconfirmed)

	return Result{
		EmailsFetched:      len(messages),
		ProposalsCreated:   upserted.Created,
		ProposalsRefreshed: upserted.Reconfirmed,
		CreatedIDs:         upserted.CreatedIDs,
	}, nil
}

func (f *Flow) buildProposal(cfg config.PlannerConfig, msg mail.Message, c models.Classification) models.Proposal {
	return models.Proposal{
		ID:             uuid.NewString(),
		CreatedAt:      f.now().UTC(),
		Status:         models.ProposalPending,
		AccountName:    msg.AccountName,
		MessageID:      msg.MessageID,
		Sender:         msg.Sender,
		Subject:        msg.Subject,
		Role:           c.Role,
		Summary:        c.Summary,
		RequiresAction: c.RequiresAction,
		Priority:       c.Priority,
		DurationMin:    c.SuggestedDurationMin,
		NextStep:       nextStep(cfg, c.Role, msg.Subject),
	}
}
