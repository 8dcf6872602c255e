package models

import "time"

// ProposalStatus is the approval lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a candidate task awaiting a human accept/reject decision.
// ID is opaque and never changes; the natural key (AccountName, MessageID)
// identifies the originating source item across repeated ingestion.
type Proposal struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Status      ProposalStatus `json:"status"`
	AccountName string         `json:"account_name"`
	MessageID   string         `json:"message_id"`
	Sender      string         `json:"sender,omitempty"`
	Subject     string         `json:"subject,omitempty"`

	// Classification-derived fields, refreshed on re-ingestion of the same
	// natural key.
	Role           string `json:"role"`
	Summary        string `json:"summary"`
	RequiresAction bool   `json:"requires_action"`
	Priority       int    `json:"priority"`
	DurationMin    int    `json:"duration_minutes"`
	NextStep       string `json:"next_step,omitempty"`

	// Set by the approval flow; never touched by re-ingestion.
	PlannedStart     *time.Time `json:"planned_start,omitempty"`
	PlannedEnd       *time.Time `json:"planned_end,omitempty"`
	CalendarEventUID string     `json:"calendar_event_uid,omitempty"`
}

// NaturalKey returns the dedup identity for the proposal's source item.
func (p Proposal) NaturalKey() ProposalKey {
	return ProposalKey{Account: p.AccountName, MessageID: p.MessageID}
}

// ProposalKey is the composite natural key (source account, source message id).
type ProposalKey struct {
	Account   string
	MessageID string
}

// Classification is the result of triaging an inbound message.
type Classification struct {
	Role                 string `json:"role"`
	RequiresAction       bool   `json:"requires_action"`
	SuggestedDurationMin int    `json:"suggested_duration_minutes"`
	Priority             int    `json:"priority"`
	Summary              string `json:"summary"`
}

// TravelEstimate is a travel duration lookup result.
type TravelEstimate struct {
	Provider    string `json:"provider"`
	DurationMin int    `json:"duration_minutes"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
}
