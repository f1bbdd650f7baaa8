package main

import (
	"github.com/spf13/cobra"

	"github.com/facturo/facturo/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invoicing API server",
	Long: `Start the facturo API server.

The server will:
  - Load configuration from facturo.yaml (or --config)
  - Or load configuration from FACTURO_* environment variables
  - Open the SQLite database and apply migrations
  - Serve the JSON API, public document links and provider webhooks

Environment variables (for Docker deployments):
  FACTURO_DATABASE_DSN      - Database path (default: facturo.db)
  FACTURO_SERVER_PORT       - Server port (default: 8080)
  FACTURO_BILLING_PROVIDER  - Payment provider: none, stripe or dummy
  FACTURO_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  facturo serve
  facturo serve --config /etc/facturo/config.yaml

  # Docker (env vars only):
  FACTURO_DATABASE_DSN=/data/facturo.db facturo serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{ConfigPath: cfgFile})
	if err != nil {
		return err
	}
	return app.Run()
}
