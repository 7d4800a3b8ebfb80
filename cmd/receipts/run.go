package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kehilathaz/receipts-automation/internal/app"
	"github.com/kehilathaz/receipts-automation/internal/models"
	"github.com/kehilathaz/receipts-automation/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every labeled mailbox message",
	Long: `run scans the mailbox for messages carrying the to-send label, processes
every receipt link found in their bodies and swaps each message's label to
sent when done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := app.New(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Runner.RunFromMailbox(ctx, pipeline.TriggerManual)
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}

func printResult(result *models.RunResult) {
	fmt.Printf("sent: %d\n", len(result.Sent))
	for _, url := range result.Sent {
		fmt.Printf("  %s\n", url)
	}
	fmt.Printf("already sent: %d\n", len(result.AlreadySent))
	for _, url := range result.AlreadySent {
		fmt.Printf("  %s\n", url)
	}
	fmt.Printf("errors: %d\n", len(result.Errors))
	for _, line := range result.Errors {
		fmt.Printf("  %s\n", line)
	}
}
