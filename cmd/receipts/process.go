package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kehilathaz/receipts-automation/internal/app"
	"github.com/kehilathaz/receipts-automation/internal/pipeline"
)

var processFile string

var processCmd = &cobra.Command{
	Use:   "process [text]",
	Short: "Process receipt links pasted as text",
	Long: `process takes a blob of text (as an argument, from --file or from stdin),
extracts every receipt link in it and runs the pipeline over them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := inputText(args)
		if err != nil {
			return err
		}

		application, err := app.New(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Runner.RunFromText(ctx, text, pipeline.TriggerManual)
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "", "read the text blob from a file")
}

// inputText picks the text blob from the argument, the --file flag or stdin
func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if processFile != "" {
		data, err := os.ReadFile(processFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", processFile, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
