package cli

import (
	"github.com/Jackob-K/personal-ai-infra/internal/backup"
	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/ingest"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/mail"
	"github.com/Jackob-K/personal-ai-infra/internal/planner"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
	"github.com/Jackob-K/personal-ai-infra/internal/storage"
	"github.com/Jackob-K/personal-ai-infra/internal/travel"
)

// Context carries the wired services every command runs against.
type Context struct {
	Store        storage.Provider
	Config       *config.Loader
	AccountsPath string
	Planner      *planner.Planner
	Proposals    *proposals.Service
	Classifier   *classifier.Classifier
	Travel       *travel.Estimator
	Debug        bool
}

// IngestFlow builds the fetch-classify-upsert pipeline on demand.
func (c *Context) IngestFlow() *ingest.Flow {
	return ingest.NewFlow(mail.New(), c.Classifier, c.Proposals, c.Config)
}

// Accounts loads the IMAP accounts file.
func (c *Context) Accounts() ([]config.InboxAccount, error) {
	return config.LoadAccounts(c.AccountsPath)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}
