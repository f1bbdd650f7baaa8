// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/facturo/facturo/adapters/clock"
	"github.com/facturo/facturo/adapters/idgen"
	"github.com/facturo/facturo/adapters/metrics"
	"github.com/facturo/facturo/adapters/payment"
	"github.com/facturo/facturo/adapters/random"
	"github.com/facturo/facturo/adapters/sqlite"
	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/config"
	"github.com/facturo/facturo/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services, exposed for CLI subcommands that run without the server.
	Tenants   *app.TenantService
	Invoices  *app.InvoiceService
	Estimates *app.EstimateService
	Recurring *app.RecurringService
	Billing   *app.BillingService
}

// Options controls application initialization.
type Options struct {
	// ConfigPath is the YAML config file. When empty or missing,
	// configuration comes from FACTURO_* environment variables.
	ConfigPath string
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing facturo")

	a := &App{Logger: logger}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := a.initServices(cfg); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("init services: %w", err)
	}

	a.initConfigReload(opts.ConfigPath)
	a.initHTTPServer(cfg)
	return a, nil
}

func (a *App) initDatabase(cfg *config.Config) error {
	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initServices(cfg *config.Config) error {
	businesses := sqlite.NewBusinessStore(a.DB)
	clients := sqlite.NewClientStore(a.DB)
	invoices := sqlite.NewInvoiceStore(a.DB)
	estimates := sqlite.NewEstimateStore(a.DB)
	recurring := sqlite.NewRecurringStore(a.DB)

	clk := clock.Real{}
	rnd := random.Real{}
	ids := idgen.UUID{}

	provider, err := payment.NewProvider(payment.Config{
		Provider: cfg.Billing.Provider,
		BaseURL:  cfg.Public.BaseURL,
		Stripe: payment.StripeConfig{
			SecretKey:     cfg.Billing.StripeSecretKey,
			PublicKey:     cfg.Billing.StripePublicKey,
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
			PlanPrices:    cfg.Billing.PlanPrices,
		},
	})
	if err != nil {
		return fmt.Errorf("payment provider: %w", err)
	}
	a.Logger.Info().Str("provider", provider.Name()).Msg("payment provider configured")

	a.Tenants = app.NewTenantService(businesses, clients, clk, ids, a.Logger)
	a.Invoices = app.NewInvoiceService(businesses, clients, invoices, clk, rnd, ids, a.Logger)
	a.Estimates = app.NewEstimateService(businesses, clients, estimates, invoices, clk, rnd, ids, a.Logger)
	a.Recurring = app.NewRecurringService(businesses, clients, recurring, invoices, clk, rnd, ids, a.Logger)
	a.Billing = app.NewBillingService(provider, businesses, a.Logger)
	return nil
}

// initConfigReload sets up live reload of the config file. Only fields
// listed by config.ReloadableFields take effect without a restart.
func (a *App) initConfigReload(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config reload unavailable")
		return
	}
	holder.OnChange(func(c *config.Config) {
		if level, err := zerolog.ParseLevel(c.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
			a.Metrics.ConfigLastReload.SetToCurrentTime()
		}
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable, SIGHUP reload only")
	}
	holder.WatchSignals()
	a.Config = holder
}

func (a *App) initHTTPServer(cfg *config.Config) {
	handler := web.NewHandler(web.Deps{
		Tenants:     a.Tenants,
		Invoices:    a.Invoices,
		Estimates:   a.Estimates,
		Recurring:   a.Recurring,
		Billing:     a.Billing,
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		Logger:      a.Logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Close releases resources without a graceful server drain. Used by
// short-lived CLI commands that never called Run.
func (a *App) Close() {
	if a.Config != nil {
		a.Config.Stop()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
