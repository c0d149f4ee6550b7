package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axondocs/axon/internal/api/handlers"
	"github.com/axondocs/axon/internal/config"
	"github.com/axondocs/axon/internal/database"
	"github.com/axondocs/axon/internal/jobs"
	"github.com/axondocs/axon/internal/openai"
	"github.com/axondocs/axon/internal/repository"
	"github.com/axondocs/axon/internal/server"
	"github.com/axondocs/axon/internal/service"
	"github.com/axondocs/axon/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the axon API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	personaRepo := repository.NewPersonaRepository(pool)
	documentSetRepo := repository.NewDocumentSetRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	retrievalLogRepo := repository.NewRetrievalLogRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(apiKeyRepo, uuidGen)

	if cfg.InitAPIKey != "" {
		if err := bootstrapInitialKey(ctx, cfg, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial API key: %w", err)
		}
	}

	personaSvc := service.NewPersonaService(personaRepo)
	if err := personaSvc.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("default persona check failed: %w", err)
	}

	documentSetSvc := service.NewDocumentSetService(documentSetRepo)

	scorer := service.NewRecencyScorer(service.DecayParams{
		HalfLife:    time.Duration(cfg.DecayHalfLifeDays) * 24 * time.Hour,
		Floor:       cfg.DecayFloor,
		RecentBoost: cfg.FavorRecentBoost,
	})

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to serve retrieval requests")
	}

	llmClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.ChatModel,
	})
	relevanceFilter := service.NewRelevanceFilter(llmClient, service.RelevanceFilterConfig{
		Concurrency: cfg.RelevanceConcurrency,
		Timeout:     cfg.RelevanceTimeout,
	})
	filterExtractor := service.NewFilterExtractor(llmClient, service.FilterExtractorConfig{})

	retrievalSvc := service.NewRetrievalService(
		llmClient,
		chunkRepo,
		documentSetSvc,
		scorer,
		relevanceFilter,
		filterExtractor,
		retrievalLogRepo,
		service.RetrievalServiceConfig{
			DefaultNumChunks:      cfg.DefaultNumChunks,
			MaxContextTokens:      cfg.MaxContextTokens,
			DisableLLMChunkFilter: cfg.DisableLLMChunkFilter,
		},
	)

	var retentionWorker *jobs.Worker
	if cfg.RetrievalLogRetentionDays > 0 {
		retention := time.Duration(cfg.RetrievalLogRetentionDays) * 24 * time.Hour
		pruner := jobs.NewRetentionWorker(retrievalLogRepo, retention)
		retentionWorker = jobs.NewWorker(pruner, time.Hour)
		go retentionWorker.Start(ctx)
		log.Printf("retention worker started (window: %d days)", cfg.RetrievalLogRetentionDays)
	}

	routerCfg := server.RouterConfig{
		AuthValidator:      authSvc,
		ContextHandler:     handlers.NewContextHandler(retrievalSvc, personaSvc),
		PersonaHandler:     handlers.NewPersonaHandler(personaSvc),
		DocumentSetHandler: handlers.NewDocumentSetHandler(documentSetSvc),
		AuthHandler:        handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if retentionWorker != nil {
		retentionWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func bootstrapInitialKey(ctx context.Context, cfg *config.Config, authSvc *service.AuthService) error {
	if !service.IsValidAPIToken(cfg.InitAPIKey) {
		return fmt.Errorf("invalid AXON_INIT_API_KEY format (expected 'axn_<64 hex chars>')")
	}

	if _, err := authSvc.ValidateAPIKey(ctx, cfg.InitAPIKey); err == nil {
		log.Println("bootstrap: API key already registered")
		return nil
	}

	if err := authSvc.CreateAPIKeyWithToken(ctx, "bootstrap", cfg.InitAPIKey); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	log.Println("bootstrap: created API key")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
