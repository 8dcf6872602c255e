package cli

import (
	"fmt"
)

type IngestCmd struct {
	MaxPerAccount int `help:"Maximum messages fetched per account." default:"10"`
}

func (cmd *IngestCmd) Run(ctx *Context) error {
	accounts, err := ctx.Accounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No inbox accounts configured; nothing to ingest.")
		return nil
	}

	result, err := ctx.IngestFlow().Run(accounts, cmd.MaxPerAccount)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	fmt.Printf("Fetched %d emails across %d accounts.\n", result.EmailsFetched, len(accounts))
	fmt.Printf("Proposals: %d new, %d refreshed.\n", result.ProposalsCreated, result.ProposalsRefreshed)
	if result.ProposalsCreated > 0 {
		fmt.Println("Run 'assistant review' to go through the new proposals.")
	}
	return nil
}
