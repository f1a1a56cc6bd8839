package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/redmonkez12/trailpass/docs" // Swagger docs (generated)
	"github.com/redmonkez12/trailpass/internal/auth"
	"github.com/redmonkez12/trailpass/internal/config"
	"github.com/redmonkez12/trailpass/internal/credential"
	"github.com/redmonkez12/trailpass/internal/database"
	httpServer "github.com/redmonkez12/trailpass/internal/http"
	"github.com/redmonkez12/trailpass/internal/license"
	"github.com/redmonkez12/trailpass/internal/logging"
	"github.com/redmonkez12/trailpass/internal/metrics"
	"github.com/redmonkez12/trailpass/internal/user"
)

// @title           Trailpass API
// @version         1.0
// @description     User registration, bearer-token login, and license issuance and verification.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "trailpass",
		Short:        "Credential and license service",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations for the postgres or sqlite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}

// logStartup records the effective settings. Credentials are left out.
func logStartup(logger *logging.Logger, cfg *config.Config) {
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"token_format", cfg.Auth.TokenFormat,
		"password_hasher", cfg.Auth.PasswordHasher,
		"rate_limit", cfg.RateLimit.Enabled,
	)
}

func runServe(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logStartup(logger, cfg)

	infra, err := openInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close(logger)

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHasher)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	tokenService, err := auth.NewTokenService(cfg.Auth.TokenFormat, []byte(cfg.Auth.TokenSecret.Reveal()))
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	m := metrics.New()

	service := credential.NewService(
		user.NewRepository(infra.store),
		license.NewLedger(infra.store),
		hasher,
		tokenService,
		m,
		logger,
	)

	router := httpServer.NewRouter(cfg, httpServer.Dependencies{
		Handler:        credential.NewHandler(service),
		AuthMiddleware: auth.NewMiddleware(tokenService),
		Limiter:        infra.limiter,
		Metrics:        m,
		Logger:         logger,
	})

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	driver, dsn, ok := sqlTarget(cfg)
	if !ok {
		return fmt.Errorf("STORE_DRIVER %q has no SQL schema to migrate", cfg.Store.Driver)
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db, driver)
	if err != nil {
		return err
	}

	logger.Info("migrations applied", "driver", string(driver), "count", applied)
	return nil
}
