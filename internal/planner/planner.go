package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/utils"
)

// Planner finds first-fit slots for tasks inside a bounded day window.
// Fixed block rules are re-read from configuration on every call, so config
// edits take effect without a restart.
type Planner struct {
	cfg *config.Loader
}

func New(cfg *config.Loader) *Planner {
	return &Planner{cfg: cfg}
}

// MergeOverlapping sorts intervals by start (stable on ties) and combines
// every overlapping or touching pair, taking the max end and joining labels.
// The result is sorted, pairwise non-overlapping, and empty iff the input is
// empty. Merged boundaries are invariant under input permutation; label
// concatenation order may depend on the original ordering.
func MergeOverlapping(intervals []models.Interval) []models.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]models.Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.Interval{sorted[0]}
	for _, block := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !block.Start.After(last.End) {
			end := last.End
			if block.End.After(end) {
				end = block.End
			}
			*last = models.Interval{
				Start: last.Start,
				End:   end,
				Label: joinLabels(last.Label, block.Label),
			}
		} else {
			merged = append(merged, block)
		}
	}

	return merged
}

func joinLabels(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}

// FixedBlocksForDay expands every rule active on the given day into its
// primary interval plus optional commute intervals immediately before and
// after it. Emission order is rule order then primary/before/after; callers
// must merge before relying on non-overlap.
func FixedBlocksForDay(day time.Time, rules []models.FixedBlockRule) ([]models.Interval, error) {
	weekday := utils.WeekdayKey(day)
	var blocks []models.Interval

	for _, rule := range rules {
		if len(rule.Days) > 0 && !containsDay(rule.Days, weekday) {
			continue
		}

		start, err := utils.AtClock(day, rule.Start)
		if err != nil {
			return nil, fmt.Errorf("fixed block rule %q: %w", rule.Label, err)
		}
		end, err := utils.AtClock(day, rule.End)
		if err != nil {
			return nil, fmt.Errorf("fixed block rule %q: %w", rule.Label, err)
		}

		label := rule.Label
		if label == "" {
			label = "Fixed block"
		}
		blocks = append(blocks, models.Interval{Start: start, End: end, Label: label})

		if rule.CommuteBeforeMin > 0 {
			blocks = append(blocks, models.Interval{
				Start: start.Add(-time.Duration(rule.CommuteBeforeMin) * time.Minute),
				End:   start,
				Label: commuteLabel(rule.CommuteBeforeLabel),
			})
		}
		if rule.CommuteAfterMin > 0 {
			blocks = append(blocks, models.Interval{
				Start: end,
				End:   end.Add(time.Duration(rule.CommuteAfterMin) * time.Minute),
				Label: commuteLabel(rule.CommuteAfterLabel),
			})
		}
	}

	return blocks, nil
}

func containsDay(days []string, key string) bool {
	for _, d := range days {
		if d == key {
			return true
		}
	}
	return false
}

func commuteLabel(label string) string {
	if label == "" {
		return "Commute"
	}
	return label
}

// PlanTask merges the request's existing intervals with the day's fixed
// blocks and walks the merged sequence for the earliest gap that fits the
// requested duration. The search is first-fit earliest-start and always
// terminates with a definite status.
func (p *Planner) PlanTask(req models.PlanRequest) (models.PlanResult, error) {
	if err := validateRequest(req); err != nil {
		return models.PlanResult{}, err
	}

	cfg, err := p.cfg.Load()
	if err != nil {
		return models.PlanResult{}, err
	}

	fixed, err := FixedBlocksForDay(req.Date, cfg.FixedBlockRules)
	if err != nil {
		return models.PlanResult{}, err
	}

	occupied := make([]models.Interval, 0, len(req.Existing)+len(fixed))
	occupied = append(occupied, req.Existing...)
	occupied = append(occupied, fixed...)
	merged := MergeOverlapping(occupied)

	dayStartValue := req.DayStart
	if dayStartValue == "" {
		dayStartValue = cfg.DayWindow.Start
	}
	dayEndValue := req.DayEnd
	if dayEndValue == "" {
		dayEndValue = cfg.DayWindow.End
	}

	dayStart, err := utils.AtClock(req.Date, dayStartValue)
	if err != nil {
		return models.PlanResult{}, errors.InvalidRequestf("day start: %v", err)
	}
	dayEnd, err := utils.AtClock(req.Date, dayEndValue)
	if err != nil {
		return models.PlanResult{}, errors.InvalidRequestf("day end: %v", err)
	}

	duration := time.Duration(req.DurationMin) * time.Minute
	result := models.PlanResult{
		Role:          req.Role,
		Title:         req.Title,
		UsedIntervals: merged,
	}

	cursor := dayStart
	for _, block := range merged {
		if !cursor.Add(duration).After(block.Start) {
			return planned(result, cursor, duration), nil
		}
		// A block entirely behind the cursor must not move it backward.
		if cursor.Before(block.End) {
			cursor = block.End
		}
	}

	if !cursor.Add(duration).After(dayEnd) {
		return planned(result, cursor, duration), nil
	}

	result.Status = models.PlanStatusUnplanned
	result.Reason = "no free slot in requested day window"
	return result, nil
}

func planned(result models.PlanResult, start time.Time, duration time.Duration) models.PlanResult {
	end := start.Add(duration)
	result.Status = models.PlanStatusPlanned
	result.PlannedStart = &start
	result.PlannedEnd = &end
	return result
}

func validateRequest(req models.PlanRequest) error {
	if req.DurationMin <= 0 || req.DurationMin > constants.MaxDurationMin {
		return errors.InvalidRequestf("duration must be in (0,%d] minutes, got %d", constants.MaxDurationMin, req.DurationMin)
	}
	if req.Date.IsZero() {
		return errors.InvalidRequestf("planning date is required")
	}
	return nil
}
