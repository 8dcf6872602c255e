package ingest

import (
	"fmt"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
)

var defaultNextSteps = map[string]string{
	"PROFESSOR":  "Draft a reply to the professor and confirm the earliest workable date.",
	"THESIS":     "Split the thesis task into one concrete 60-minute block and outline the first paragraph.",
	"EMPLOYMENT": "Confirm the shift or work request and put a follow-up block on the calendar.",
	"STARTUP":    "Write a three-point action plan for the startup and send a follow-up.",
	"SCHOOL":     "Check the deadline and slot the preparation into the nearest free block.",
	"ASSISTANT":  "Review the assistant's draft, adjust the priority, and approve the plan.",
}

// nextStep returns the suggested follow-up for a classified email. Role
// overrides from the planner config win over the built-in templates.
func nextStep(cfg config.PlannerConfig, role, subject string) string {
	if roleCfg, ok := cfg.Roles[role]; ok && roleCfg.NextStep != "" {
		return roleCfg.NextStep
	}
	if step, ok := defaultNextSteps[role]; ok {
		return step
	}
	if len(subject) > 80 {
		subject = subject[:80]
	}
	return fmt.Sprintf("Suggest the first concrete step for: %s", subject)
}
