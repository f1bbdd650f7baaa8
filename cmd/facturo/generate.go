package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/facturo/facturo/bootstrap"
)

var generateTimeout time.Duration

// generateCmd runs one sweep over due recurring templates. Scheduling
// is left to the operator: run it from cron or a systemd timer.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fire due recurring invoice templates once and exit",
	Long: `Generate invoices from every active recurring template whose
next invoice date has arrived, then exit.

Intended to be invoked periodically, for example from cron:

  */15 * * * * facturo generate --config /etc/facturo/config.yaml`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 5*time.Minute, "abort the sweep after this long")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{ConfigPath: cfgFile})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	created, err := app.Recurring.FireDue(ctx)
	if err != nil {
		return fmt.Errorf("fire due templates: %w", err)
	}

	fmt.Printf("generated %d invoice(s)\n", len(created))
	for _, inv := range created {
		fmt.Printf("  %s  %s  %s %s\n", inv.Number, inv.ID, inv.Total.StringFixed(2), inv.Currency)
	}
	return nil
}
