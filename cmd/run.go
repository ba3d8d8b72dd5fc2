package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cryptoledger/api"
	"cryptoledger/config"
	"cryptoledger/database"
	"cryptoledger/events"
	"cryptoledger/metrics"
	"cryptoledger/repository"
	"cryptoledger/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the ledger service
func Run(ctx context.Context) error {
	log.Info("Starting ledger service...")

	// Load configuration
	cfg := config.Get()
	ConfigureLogging(cfg.LogLevel, cfg.Environment)

	// Apply pending schema migrations
	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	metrics.Register()
	eventBus.SubscribeAll(metrics.EventHandler())

	if cfg.NATSServers != "" {
		publisher := events.NewNATSPublisher(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := publisher.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to initialize NATS publisher: %w", err)
		}
		defer publisher.Close()
		eventBus.SubscribeAll(publisher.Handler())
	} else {
		log.Info("NATS_SERVERS not set, ledger events stay in-process")
	}

	// Initialize unit of work factory and services
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	authService := service.NewAuthService(uowFactory, service.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,
	})
	depositService := service.NewDepositService(uowFactory)
	investmentService := service.NewInvestmentService(uowFactory)
	withdrawalService := service.NewWithdrawalService(uowFactory, cfg.MinWithdrawal)
	log.Info("Services initialized successfully")

	// Start the ROI accrual worker
	stopWorker := func() {}
	if cfg.ROIAccrualEnabled {
		worker := service.NewROIAccrualWorker(
			investmentService,
			repository.NewAccrualRunRepository(db),
			cfg.ROIAccrualInitialDelay,
			cfg.ROIAccrualInterval,
		)
		stopWorker = worker.Start(ctx)
	} else {
		log.Info("ROI accrual worker disabled")
	}

	router := api.NewRouter(api.Services{
		Auth:        authService,
		Deposits:    depositService,
		Investments: investmentService,
		Withdrawals: withdrawalService,
		Health:      db.Ping,
	}, api.DefaultRequestTimeout)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":        cfg.HTTPAddr,
			"environment": cfg.Environment,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for context cancellation or a server failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			stopWorker()
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("Shutting down ledger service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	stopWorker()
	log.Info("Shutdown completed")

	return nil
}
