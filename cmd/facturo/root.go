package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "facturo",
	Short: "Multi-tenant invoicing service with estimates, recurring billing and plan gating",
	Long: `Facturo is a self-hosted invoicing backend.

It manages businesses, clients, invoices, estimates and recurring
invoice templates, with per-tenant document numbering and subscription
plan limits.

Quick start:
  facturo serve     # Start the API server

Operations:
  facturo generate  # Fire due recurring invoice templates once
  facturo validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "facturo.yaml", "config file path")
}
