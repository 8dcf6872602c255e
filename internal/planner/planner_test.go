package planner

import (
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/errors"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // a Monday

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func interval(startHour, startMin, endHour, endMin int, label string) models.Interval {
	return models.Interval{Start: at(startHour, startMin), End: at(endHour, endMin), Label: label}
}

func TestMergeOverlapping_Empty(t *testing.T) {
	if merged := MergeOverlapping(nil); len(merged) != 0 {
		t.Errorf("Expected empty result for empty input, got %v", merged)
	}
}

func TestMergeOverlapping_CombinesOverlaps(t *testing.T) {
	merged := MergeOverlapping([]models.Interval{
		interval(9, 0, 11, 0, "work"),
		interval(10, 0, 12, 0, "meeting"),
		interval(14, 0, 15, 0, "gym"),
	})

	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged intervals, got %d", len(merged))
	}
	if !merged[0].Start.Equal(at(9, 0)) || !merged[0].End.Equal(at(12, 0)) {
		t.Errorf("Expected merged interval 09:00-12:00, got %v-%v", merged[0].Start, merged[0].End)
	}
	if merged[0].Label != "work; meeting" {
		t.Errorf("Expected joined label 'work; meeting', got %q", merged[0].Label)
	}
	if !merged[1].Start.Equal(at(14, 0)) {
		t.Errorf("Expected second interval to start at 14:00, got %v", merged[1].Start)
	}
}

func TestMergeOverlapping_TouchingIntervalsMerge(t *testing.T) {
	merged := MergeOverlapping([]models.Interval{
		interval(9, 0, 10, 0, "a"),
		interval(10, 0, 11, 0, "b"),
	})

	if len(merged) != 1 {
		t.Fatalf("Expected touching intervals to merge, got %d intervals", len(merged))
	}
	if !merged[0].End.Equal(at(11, 0)) {
		t.Errorf("Expected merged end 11:00, got %v", merged[0].End)
	}
}

func TestMergeOverlapping_ContainedInterval(t *testing.T) {
	merged := MergeOverlapping([]models.Interval{
		interval(9, 0, 17, 0, "work"),
		interval(10, 0, 11, 0, "standup"),
	})

	if len(merged) != 1 {
		t.Fatalf("Expected contained interval to fold in, got %d intervals", len(merged))
	}
	if !merged[0].Start.Equal(at(9, 0)) || !merged[0].End.Equal(at(17, 0)) {
		t.Errorf("Expected 09:00-17:00, got %v-%v", merged[0].Start, merged[0].End)
	}
}

func TestMergeOverlapping_ZeroLengthInterval(t *testing.T) {
	merged := MergeOverlapping([]models.Interval{
		interval(9, 0, 9, 0, "degenerate"),
		interval(8, 0, 10, 0, "real"),
	})

	if len(merged) != 1 {
		t.Fatalf("Expected zero-length interval to be absorbed, got %d intervals", len(merged))
	}
}

func TestMergeOverlapping_PermutationInvariantBoundaries(t *testing.T) {
	base := []models.Interval{
		interval(6, 0, 7, 30, "a"),
		interval(7, 0, 9, 0, "b"),
		interval(9, 0, 10, 0, "c"),
		interval(12, 0, 13, 0, "d"),
		interval(12, 30, 12, 45, "e"),
		interval(18, 0, 18, 0, "f"),
	}

	want := MergeOverlapping(base)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]models.Interval, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := MergeOverlapping(shuffled)
		if len(got) != len(want) {
			t.Fatalf("Trial %d: expected %d intervals, got %d", trial, len(want), len(got))
		}
		for i := range got {
			if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
				t.Errorf("Trial %d: interval %d boundaries differ: got %v-%v, want %v-%v",
					trial, i, got[i].Start, got[i].End, want[i].Start, want[i].End)
			}
		}
	}
}

func TestMergeOverlapping_ResultIsNonOverlapping(t *testing.T) {
	merged := MergeOverlapping([]models.Interval{
		interval(6, 0, 8, 0, "a"),
		interval(7, 0, 9, 0, "b"),
		interval(11, 0, 12, 0, "c"),
		interval(11, 30, 13, 0, "d"),
	})

	for i := 1; i < len(merged); i++ {
		if merged[i].Start.Before(merged[i-1].End) {
			t.Errorf("Intervals %d and %d overlap: %v-%v then %v-%v",
				i-1, i, merged[i-1].Start, merged[i-1].End, merged[i].Start, merged[i].End)
		}
	}
}

func TestMergeOverlapping_DoesNotMutateInput(t *testing.T) {
	input := []models.Interval{
		interval(10, 0, 12, 0, "b"),
		interval(9, 0, 11, 0, "a"),
	}

	MergeOverlapping(input)

	if !input[0].Start.Equal(at(10, 0)) || input[0].Label != "b" {
		t.Error("Expected input slice to be left untouched")
	}
}

func TestFixedBlocksForDay_WeekdayFilter(t *testing.T) {
	rules := []models.FixedBlockRule{
		{Days: []string{"mon", "wed"}, Start: "09:00", End: "17:00", Label: "work"},
		{Days: []string{"sun"}, Start: "10:00", End: "11:00", Label: "church"},
		{Start: "07:00", End: "07:30", Label: "breakfast"}, // empty days = every day
	}

	blocks, err := FixedBlocksForDay(day, rules) // Monday
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks (work + breakfast), got %d", len(blocks))
	}
	if blocks[0].Label != "work" || blocks[1].Label != "breakfast" {
		t.Errorf("Expected rule emission order, got %q then %q", blocks[0].Label, blocks[1].Label)
	}
}

func TestFixedBlocksForDay_CommuteBuffers(t *testing.T) {
	rules := []models.FixedBlockRule{
		{
			Start:              "09:00",
			End:                "17:00",
			Label:              "work",
			CommuteBeforeMin:   30,
			CommuteAfterMin:    45,
			CommuteBeforeLabel: "commute in",
		},
	}

	blocks, err := FixedBlocksForDay(day, rules)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("Expected primary + 2 commute blocks, got %d", len(blocks))
	}
	before := blocks[1]
	if !before.Start.Equal(at(8, 30)) || !before.End.Equal(at(9, 0)) {
		t.Errorf("Expected commute-before 08:30-09:00, got %v-%v", before.Start, before.End)
	}
	if before.Label != "commute in" {
		t.Errorf("Expected custom commute label, got %q", before.Label)
	}
	after := blocks[2]
	if !after.Start.Equal(at(17, 0)) || !after.End.Equal(at(17, 45)) {
		t.Errorf("Expected commute-after 17:00-17:45, got %v-%v", after.Start, after.End)
	}
	if after.Label != "Commute" {
		t.Errorf("Expected default commute label, got %q", after.Label)
	}
}

func TestFixedBlocksForDay_InvalidClock(t *testing.T) {
	rules := []models.FixedBlockRule{{Start: "25:00", End: "26:00", Label: "bad"}}
	if _, err := FixedBlocksForDay(day, rules); err == nil {
		t.Error("Expected error for malformed rule time")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func newTestPlanner(t *testing.T, cfg string) *Planner {
	t.Helper()
	path := ""
	if cfg != "" {
		path = t.TempDir() + "/planner_config.json"
		if err := writeFile(path, cfg); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
	}
	return New(config.NewLoader(path))
}

func TestPlanTask_EarliestFitBeforeBlock(t *testing.T) {
	p := newTestPlanner(t, "")

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "SCHOOL",
		Title:       "study",
		DurationMin: 60,
		Date:        day,
		Existing:    []models.Interval{interval(9, 0, 17, 0, "work")},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusPlanned {
		t.Fatalf("Expected planned, got %s (%s)", result.Status, result.Reason)
	}
	if !result.PlannedStart.Equal(at(5, 0)) || !result.PlannedEnd.Equal(at(6, 0)) {
		t.Errorf("Expected 05:00-06:00, got %v-%v", result.PlannedStart, result.PlannedEnd)
	}
}

func TestPlanTask_OnlyShortGapRemains(t *testing.T) {
	p := newTestPlanner(t, "")

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "SCHOOL",
		Title:       "study",
		DurationMin: 60,
		Date:        day,
		Existing:    []models.Interval{interval(5, 0, 21, 30, "busy")},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusUnplanned {
		t.Fatalf("Expected unplanned, got %s", result.Status)
	}
	if result.Reason == "" {
		t.Error("Expected a non-empty reason on unplanned result")
	}
	if result.PlannedStart != nil || result.PlannedEnd != nil {
		t.Error("Expected no planned times on unplanned result")
	}
}

func TestPlanTask_EmptyDay(t *testing.T) {
	p := newTestPlanner(t, "")

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "PERSONAL",
		Title:       "walk",
		DurationMin: 30,
		Date:        day,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusPlanned {
		t.Fatalf("Expected planned on empty day, got %s", result.Status)
	}
	if !result.PlannedStart.Equal(at(5, 0)) {
		t.Errorf("Expected slot at day start, got %v", result.PlannedStart)
	}
}

func TestPlanTask_BlockCoversWholeWindow(t *testing.T) {
	p := newTestPlanner(t, "")

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "PERSONAL",
		Title:       "anything",
		DurationMin: 1,
		Date:        day,
		Existing:    []models.Interval{interval(4, 0, 23, 0, "offline")},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusUnplanned {
		t.Errorf("Expected unplanned when a block covers the window, got %s", result.Status)
	}
}

func TestPlanTask_DurationExceedsWindow(t *testing.T) {
	p := newTestPlanner(t, "")

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "PERSONAL",
		Title:       "marathon",
		DurationMin: 600,
		Date:        day,
		DayStart:    "09:00",
		DayEnd:      "12:00",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusUnplanned {
		t.Errorf("Expected unplanned when duration exceeds the window, got %s", result.Status)
	}
}

func TestPlanTask_CursorNeverMovesBackward(t *testing.T) {
	p := newTestPlanner(t, "")

	// An interval contained in an earlier one must not pull the cursor back.
	result, err := p.PlanTask(models.PlanRequest{
		Role:        "PERSONAL",
		Title:       "task",
		DurationMin: 60,
		Date:        day,
		DayStart:    "08:00",
		Existing: []models.Interval{
			interval(8, 0, 12, 0, "morning"),
			interval(9, 0, 10, 0, "inner"),
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusPlanned {
		t.Fatalf("Expected planned, got %s", result.Status)
	}
	if !result.PlannedStart.Equal(at(12, 0)) {
		t.Errorf("Expected slot at 12:00 after the merged block, got %v", result.PlannedStart)
	}
}

func TestPlanTask_PlannedSlotIsDisjointAndExact(t *testing.T) {
	p := newTestPlanner(t, "")

	req := models.PlanRequest{
		Role:        "PERSONAL",
		Title:       "task",
		DurationMin: 45,
		Date:        day,
		Existing: []models.Interval{
			interval(5, 0, 6, 0, "a"),
			interval(6, 30, 8, 0, "b"),
		},
	}
	result, err := p.PlanTask(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != models.PlanStatusPlanned {
		t.Fatalf("Expected planned, got %s", result.Status)
	}
	if got := result.PlannedEnd.Sub(*result.PlannedStart); got != 45*time.Minute {
		t.Errorf("Expected exact 45m slot, got %v", got)
	}
	slot := models.Interval{Start: *result.PlannedStart, End: *result.PlannedEnd}
	for _, block := range result.UsedIntervals {
		if slot.Overlaps(block) {
			t.Errorf("Planned slot %v-%v overlaps occupied %v-%v", slot.Start, slot.End, block.Start, block.End)
		}
	}
}

func TestPlanTask_UsesConfiguredFixedBlocks(t *testing.T) {
	cfg := `{
		"day_window": {"start": "05:00", "end": "22:00"},
		"fixed_block_rules": [
			{"days": ["mon"], "start": "05:00", "end": "09:00", "label": "sleep-in"}
		]
	}`
	p := newTestPlanner(t, cfg)

	result, err := p.PlanTask(models.PlanRequest{
		Role:        "SCHOOL",
		Title:       "study",
		DurationMin: 60,
		Date:        day,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.PlannedStart.Equal(at(9, 0)) {
		t.Errorf("Expected fixed block from config to push slot to 09:00, got %v", result.PlannedStart)
	}
}

func TestPlanTask_ValidationErrors(t *testing.T) {
	p := newTestPlanner(t, "")

	cases := []models.PlanRequest{
		{Role: "X", Title: "zero", DurationMin: 0, Date: day},
		{Role: "X", Title: "negative", DurationMin: -5, Date: day},
		{Role: "X", Title: "too long", DurationMin: 601, Date: day},
		{Role: "X", Title: "no date", DurationMin: 30},
	}

	for _, req := range cases {
		if _, err := p.PlanTask(req); !errors.IsInvalidRequest(err) {
			t.Errorf("Request %q: expected ErrInvalidRequest, got %v", req.Title, err)
		}
	}
}

func TestPlanTask_InvalidWindowOverride(t *testing.T) {
	p := newTestPlanner(t, "")

	_, err := p.PlanTask(models.PlanRequest{
		Role:        "X",
		Title:       "bad window",
		DurationMin: 30,
		Date:        day,
		DayStart:    "5am",
	})
	if !errors.IsInvalidRequest(err) {
		t.Errorf("Expected ErrInvalidRequest for malformed day start, got %v", err)
	}
}
