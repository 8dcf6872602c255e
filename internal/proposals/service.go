package proposals

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/planner"
	"github.com/Jackob-K/personal-ai-infra/internal/storage"
)

// CalendarClient creates an event in an external calendar. An empty uid with
// a nil error means "not configured or declined" and is a soft failure.
type CalendarClient interface {
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error)
}

// Service owns the proposal collection: it reconciles newly ingested
// candidates against known ones and advances proposals through the approval
// lifecycle. Every read-modify-write cycle of the store runs under a single
// writer lock; the calendar call happens outside it.
type Service struct {
	mu       sync.Mutex
	store    storage.Provider
	planner  *planner.Planner
	calendar CalendarClient
}

func NewService(store storage.Provider, p *planner.Planner, calendar CalendarClient) *Service {
	return &Service{
		store:    store,
		planner:  p,
		calendar: calendar,
	}
}

// UpsertResult reports how a candidate batch reconciled against the store.
type UpsertResult struct {
	Created     int      `json:"created"`
	Reconfirmed int      `json:"reconfirmed"`
	CreatedIDs  []string `json:"created_ids,omitempty"`
}

// Upsert merges candidates into the store keyed by their natural key
// (account, message id). Unseen keys are stored as-is with status pending;
// known keys only get their classification-derived fields refreshed, so a
// decided proposal is never resurrected or rescheduled by re-ingestion.
// The operation is idempotent: repeating the same batch yields created=0.
func (s *Service) Upsert(candidates []models.Proposal) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.ListProposals()
	if err != nil {
		return UpsertResult{}, err
	}

	index := make(map[models.ProposalKey]int, len(stored))
	for i, p := range stored {
		index[p.NaturalKey()] = i
	}

	var result UpsertResult
	for _, candidate := range candidates {
		if i, ok := index[candidate.NaturalKey()]; ok {
			existing := &stored[i]
			existing.Sender = candidate.Sender
			existing.Subject = candidate.Subject
			existing.Role = candidate.Role
			existing.Summary = candidate.Summary
			existing.RequiresAction = candidate.RequiresAction
			existing.Priority = candidate.Priority
			existing.DurationMin = candidate.DurationMin
			existing.NextStep = candidate.NextStep
			result.Reconfirmed++
			continue
		}

		candidate.Status = models.ProposalPending
		stored = append(stored, candidate)
		index[candidate.NaturalKey()] = len(stored) - 1
		result.Created++
		result.CreatedIDs = append(result.CreatedIDs, candidate.ID)
	}

	if err := s.store.SaveProposals(stored); err != nil {
		return UpsertResult{}, err
	}

	return result, nil
}

// List returns proposals ordered by creation time, optionally filtered by
// status.
func (s *Service) List(status models.ProposalStatus) ([]models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.ListProposals()
	if err != nil {
		return nil, err
	}

	var proposals []models.Proposal
	for _, p := range stored {
		if status == "" || p.Status == status {
			proposals = append(proposals, p)
		}
	}

	sortProposals(proposals)
	return proposals, nil
}

// Get resolves a proposal by id or unique id prefix.
func (s *Service) Get(ref string) (models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.ListProposals()
	if err != nil {
		return models.Proposal{}, err
	}

	i, err := resolveRef(stored, ref)
	if err != nil {
		return models.Proposal{}, err
	}
	return stored[i], nil
}

// DecideRequest carries a human accept/reject decision with optional
// overrides. Zero values mean "keep the stored value".
type DecideRequest struct {
	Approve      bool       `json:"approve"`
	PlanningDate *time.Time `json:"-"`
	DurationMin  int        `json:"duration_minutes,omitempty"`
	Priority     int        `json:"priority,omitempty"`
	Role         string     `json:"role,omitempty"`
	AutoSchedule bool       `json:"auto_schedule"`
}

// Decide transitions a pending proposal to approved or rejected. Approval
// applies overrides, plans a slot around other approved proposals' booked
// intervals plus the day's fixed blocks, and persists the transition before
// the calendar capability is invoked (at most once per call); the returned
// event uid, if any, is recorded in a follow-up update. An unplanned outcome
// still approves the proposal. Deciding a non-pending proposal is a
// validation error.
func (s *Service) Decide(ctx context.Context, ref string, req DecideRequest) (models.Proposal, error) {
	if err := validateDecideRequest(req); err != nil {
		return models.Proposal{}, err
	}

	decided, err := s.applyDecision(ref, req)
	if err != nil {
		return models.Proposal{}, err
	}

	if req.Approve && req.AutoSchedule && s.calendar != nil &&
		decided.PlannedStart != nil && decided.PlannedEnd != nil {
		uid := s.createCalendarEvent(ctx, decided)
		if uid != "" {
			return s.recordEventUID(decided.ID, uid)
		}
	}

	return decided, nil
}

// applyDecision runs the state transition as one read-modify-write cycle
// under the writer lock. No network calls happen in here.
func (s *Service) applyDecision(ref string, req DecideRequest) (models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.ListProposals()
	if err != nil {
		return models.Proposal{}, err
	}

	i, err := resolveRef(stored, ref)
	if err != nil {
		return models.Proposal{}, err
	}
	proposal := &stored[i]

	if proposal.Status != models.ProposalPending {
		return models.Proposal{}, errors.InvalidRequestf(
			"proposal %s is already %s", proposal.ID, proposal.Status)
	}

	if !req.Approve {
		proposal.Status = models.ProposalRejected
		if err := s.store.SaveProposals(stored); err != nil {
			return models.Proposal{}, err
		}
		return *proposal, nil
	}

	proposal.Status = models.ProposalApproved
	if req.Role != "" {
		proposal.Role = req.Role
	}
	if req.Priority != 0 {
		proposal.Priority = req.Priority
	}
	if req.DurationMin != 0 {
		proposal.DurationMin = req.DurationMin
	}

	planningDate := time.Now()
	if req.PlanningDate != nil {
		planningDate = *req.PlanningDate
	}

	title := proposal.Subject
	if title == "" {
		title = proposal.Summary
	}

	plan, err := s.planner.PlanTask(models.PlanRequest{
		Role:        proposal.Role,
		Title:       title,
		DurationMin: proposal.DurationMin,
		Date:        planningDate,
		Existing:    occupiedFromApproved(stored, proposal.ID),
	})
	if err != nil {
		return models.Proposal{}, err
	}

	if plan.Status == models.PlanStatusPlanned {
		proposal.PlannedStart = plan.PlannedStart
		proposal.PlannedEnd = plan.PlannedEnd
	} else {
		logger.Info("Approved proposal left unscheduled",
			"proposal", proposal.ID, "reason", plan.Reason)
	}

	if err := s.store.SaveProposals(stored); err != nil {
		return models.Proposal{}, err
	}

	return *proposal, nil
}

func (s *Service) createCalendarEvent(ctx context.Context, p models.Proposal) string {
	summary := "[" + p.Role + "] " + p.Subject
	description := p.Summary
	if p.NextStep != "" {
		description += "\n\nNext step: " + p.NextStep
	}

	uid, err := s.calendar.CreateEvent(ctx, summary, description, *p.PlannedStart, *p.PlannedEnd)
	if err != nil {
		// Soft failure: the approval already stands, the event just was not
		// created.
		logger.Warn("Calendar event creation failed", "proposal", p.ID, "error", err)
		return ""
	}
	return uid
}

func (s *Service) recordEventUID(id, uid string) (models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.ListProposals()
	if err != nil {
		return models.Proposal{}, err
	}

	i, err := resolveRef(stored, id)
	if err != nil {
		return models.Proposal{}, err
	}
	stored[i].CalendarEventUID = uid

	if err := s.store.SaveProposals(stored); err != nil {
		return models.Proposal{}, err
	}

	return stored[i], nil
}

func occupiedFromApproved(proposals []models.Proposal, excludeID string) []models.Interval {
	var intervals []models.Interval
	for _, p := range proposals {
		if p.ID == excludeID || p.Status != models.ProposalApproved {
			continue
		}
		if p.PlannedStart == nil || p.PlannedEnd == nil {
			continue
		}
		intervals = append(intervals, models.Interval{
			Start: *p.PlannedStart,
			End:   *p.PlannedEnd,
			Label: p.Subject,
		})
	}
	return intervals
}

// resolveRef finds a proposal by exact id or unique prefix. Ambiguous
// prefixes resolve to nothing.
func resolveRef(proposals []models.Proposal, ref string) (int, error) {
	if ref == "" {
		return 0, errors.NotFoundf("empty proposal reference")
	}

	match := -1
	for i, p := range proposals {
		if p.ID == ref {
			return i, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			if match >= 0 {
				return 0, errors.NotFoundf("proposal reference %q is ambiguous", ref)
			}
			match = i
		}
	}

	if match < 0 {
		return 0, errors.NotFoundf("proposal %q", ref)
	}
	return match, nil
}

func validateDecideRequest(req DecideRequest) error {
	if req.DurationMin != 0 &&
		(req.DurationMin < 1 || req.DurationMin > constants.MaxDurationMin) {
		return errors.InvalidRequestf("duration must be in (0,%d] minutes, got %d",
			constants.MaxDurationMin, req.DurationMin)
	}
	if req.Priority != 0 &&
		(req.Priority < constants.MinPriority || req.Priority > constants.MaxPriority) {
		return errors.InvalidRequestf("priority must be in [%d,%d], got %d",
			constants.MinPriority, constants.MaxPriority, req.Priority)
	}
	return nil
}

func sortProposals(proposals []models.Proposal) {
	sort.SliceStable(proposals, func(i, j int) bool {
		if !proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
			return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
		}
		return proposals[i].ID < proposals[j].ID
	})
}
