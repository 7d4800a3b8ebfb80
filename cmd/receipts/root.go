package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Donation receipts automation",
	Long: `receipts processes donation receipt links: it downloads each receipt PDF,
extracts its fields, mails the receipt to the donor, archives the file in the
shared drive and records the payment in the ledger sheet.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
