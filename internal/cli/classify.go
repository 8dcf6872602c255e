package cli

import (
	"fmt"

	"github.com/Jackob-K/personal-ai-infra/internal/classifier"
)

type ClassifyCmd struct {
	Subject string `arg:"" help:"Email subject."`
	Body    string `help:"Email body text." default:""`
	Sender  string `help:"Sender address." default:""`
}

func (cmd *ClassifyCmd) Run(ctx *Context) error {
	result := ctx.Classifier.Classify(classifier.Request{
		Subject: cmd.Subject,
		Body:    cmd.Body,
		Sender:  cmd.Sender,
	})

	fmt.Printf("Role:            %s\n", result.Role)
	fmt.Printf("Requires action: %t\n", result.RequiresAction)
	fmt.Printf("Priority:        %d\n", result.Priority)
	fmt.Printf("Duration:        %d min\n", result.SuggestedDurationMin)
	fmt.Printf("Summary:         %s\n", result.Summary)
	return nil
}
