package models

import "time"

// PlanStatus is the terminal status of a slot search.
type PlanStatus string

const (
	PlanStatusPlanned   PlanStatus = "planned"
	PlanStatusUnplanned PlanStatus = "unplanned"
)

// Interval is a half-open time range [Start, End) with a descriptive label.
// Intervals are values; merging produces new intervals and never mutates in place.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label,omitempty"`
}

// Duration returns the covered duration. Zero-length intervals are degenerate
// but valid.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the interval shares any timestamp with other,
// treating touching boundaries as non-overlapping.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// FixedBlockRule is a recurring, configuration-defined occupied interval.
// Days holds lowercase three-letter weekday keys (mon..sun); an empty set
// applies the rule every day.
type FixedBlockRule struct {
	Days               []string `json:"days,omitempty"`
	Start              string   `json:"start"` // HH:MM
	End                string   `json:"end"`   // HH:MM
	Label              string   `json:"label,omitempty"`
	CommuteBeforeMin   int      `json:"commute_before_minutes,omitempty"`
	CommuteAfterMin    int      `json:"commute_after_minutes,omitempty"`
	CommuteBeforeLabel string   `json:"commute_before_label,omitempty"`
	CommuteAfterLabel  string   `json:"commute_after_label,omitempty"`
}

// PlanRequest asks the planner for the earliest feasible slot for a task on
// a given date.
type PlanRequest struct {
	Role        string     `json:"role"`
	Title       string     `json:"task_title"`
	DurationMin int        `json:"duration_minutes"`
	Date        time.Time  `json:"planning_date"`
	DayStart    string     `json:"day_start,omitempty"` // HH:MM override
	DayEnd      string     `json:"day_end,omitempty"`   // HH:MM override
	Existing    []Interval `json:"existing_events,omitempty"`
}

// PlanResult is the total outcome of a slot search. Exactly one of
// (PlannedStart & PlannedEnd set) or (Status unplanned with Reason) holds.
type PlanResult struct {
	Role          string     `json:"role"`
	Title         string     `json:"task_title"`
	Status        PlanStatus `json:"status"`
	PlannedStart  *time.Time `json:"planned_start,omitempty"`
	PlannedEnd    *time.Time `json:"planned_end,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	UsedIntervals []Interval `json:"used_blocks,omitempty"`
}
