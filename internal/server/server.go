package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/ingest"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/planner"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
	"github.com/Jackob-K/personal-ai-infra/internal/travel"
)

// Classifier triages one email.
type Classifier interface {
	Classify(req classifier.Request) models.Classification
}

// Ingestor runs one inbox ingestion pass.
type Ingestor interface {
	Run(accounts []config.InboxAccount, maxPerAccount int) (ingest.Result, error)
}

// Server exposes the assistant over HTTP.
type Server struct {
	planner    *planner.Planner
	proposals  *proposals.Service
	classifier Classifier
	ingest     Ingestor
	travel     *travel.Estimator
	accounts   func() ([]config.InboxAccount, error)
}

type Deps struct {
	Planner    *planner.Planner
	Proposals  *proposals.Service
	Classifier Classifier
	Ingest     Ingestor
	Travel     *travel.Estimator
	Accounts   func() ([]config.InboxAccount, error)
}

func New(deps Deps) *Server {
	accounts := deps.Accounts
	if accounts == nil {
		accounts = func() ([]config.InboxAccount, error) { return nil, nil }
	}
	return &Server{
		planner:    deps.Planner,
		proposals:  deps.Proposals,
		classifier: deps.Classifier,
		ingest:     deps.Ingest,
		travel:     deps.Travel,
		accounts:   accounts,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.POST("/classify-email", s.handleClassify)
	router.POST("/plan-task", s.handlePlanTask)
	router.POST("/imap/ingest", s.handleIngest)
	router.GET("/proposals", s.handleListProposals)
	router.POST("/proposals/:id/decision", s.handleDecision)
	router.POST("/travel/estimate", s.handleTravelEstimate)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": constants.Version})
}

// writeError maps the internal error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.IsInvalidRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
