package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kehilathaz/receipts-automation/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the payments ledger to a local Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := app.New(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer application.Close()

		led, err := application.LoadLedger(ctx)
		if err != nil {
			return err
		}

		path, err := led.ExportXLSX(application.Config.Receipts.ExportDir)
		if err != nil {
			return err
		}

		fmt.Printf("ledger exported to %s\n", path)
		return nil
	},
}
