package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
	"github.com/Jackob-K/personal-ai-infra/internal/travel"
	"github.com/Jackob-K/personal-ai-infra/internal/utils"
)

type classifyRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.classifier.Classify(classifier.Request{
		Subject: req.Subject,
		Body:    req.Body,
		Sender:  req.Sender,
	})
	c.JSON(http.StatusOK, result)
}

type planTaskRequest struct {
	Role           string            `json:"role"`
	TaskTitle      string            `json:"task_title"`
	DurationMin    int               `json:"duration_minutes"`
	PlanningDate   string            `json:"planning_date"`
	DayStart       string            `json:"day_start"`
	DayEnd         string            `json:"day_end"`
	ExistingEvents []models.Interval `json:"existing_events"`
}

func (s *Server) handlePlanTask(c *gin.Context) {
	var req planTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := utils.ParseDate(req.PlanningDate, time.Local)
	if err != nil {
		writeError(c, errors.InvalidRequestf("invalid planning_date: %v", err))
		return
	}

	result, err := s.planner.PlanTask(models.PlanRequest{
		Role:        req.Role,
		Title:       req.TaskTitle,
		DurationMin: req.DurationMin,
		Date:        date,
		DayStart:    req.DayStart,
		DayEnd:      req.DayEnd,
		Existing:    req.ExistingEvents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type ingestRequest struct {
	MaxPerAccount int `json:"max_per_account"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accounts, err := s.accounts()
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := s.ingest.Run(accounts, req.MaxPerAccount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListProposals(c *gin.Context) {
	status := models.ProposalStatus(c.Query("status"))
	switch status {
	case "", models.ProposalPending, models.ProposalApproved, models.ProposalRejected:
	default:
		writeError(c, errors.InvalidRequestf("unknown status %q", status))
		return
	}

	list, err := s.proposals.List(status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": list, "count": len(list)})
}

type decisionRequest struct {
	Approve      bool   `json:"approve"`
	PlanningDate string `json:"planning_date"`
	DurationMin  int    `json:"duration_minutes"`
	Priority     int    `json:"priority"`
	Role         string `json:"role"`
	AutoSchedule bool   `json:"auto_schedule"`
}

func (s *Server) handleDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decide := proposals.DecideRequest{
		Approve:      req.Approve,
		DurationMin:  req.DurationMin,
		Priority:     req.Priority,
		Role:         req.Role,
		AutoSchedule: req.AutoSchedule,
	}
	if req.PlanningDate != "" {
		date, err := utils.ParseDate(req.PlanningDate, time.Local)
		if err != nil {
			writeError(c, errors.InvalidRequestf("invalid planning_date: %v", err))
			return
		}
		decide.PlanningDate = &date
	}

	proposal, err := s.proposals.Decide(c.Request.Context(), c.Param("id"), decide)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (s *Server) handleTravelEstimate(c *gin.Context) {
	var req travel.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	estimate, err := s.travel.Estimate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}
