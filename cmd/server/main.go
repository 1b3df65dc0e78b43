package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/catalog"
	"medica-diagnosis/internal/config"
	"medica-diagnosis/internal/diagnosis"
	"medica-diagnosis/internal/disease"
	"medica-diagnosis/internal/feedback"
	"medica-diagnosis/internal/platform/database"
	applog "medica-diagnosis/internal/platform/middleware"
	"medica-diagnosis/internal/platform/respond"
	"medica-diagnosis/internal/platform/session"
	"medica-diagnosis/internal/platform/telegram"
	"medica-diagnosis/internal/report"
	"medica-diagnosis/internal/treatment"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "medica",
		Short:        "Diagnostic decision-support API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(checkDiseaseCmd())
	rootCmd.AddCommand(vitalsCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadFile(cfg.CatalogFile)
	}
	return catalog.Default()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg.Env)

	// 1. Infrastructure
	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}
	logger.Info().
		Int("symptoms", len(cat.Symptoms())).
		Int("diseases", len(cat.Diseases())).
		Msg("catalog loaded")

	repo := diagnosis.NewMemoryRepository()
	feedbackRepo := feedback.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.Open(ctx, cfg.DatabaseURL, logger)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		logger.Info().Msg("connected to database")

		changed, err := database.Migrate(cfg.MigrationsDir, cfg.DatabaseURL, database.Up)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		logger.Info().Bool("changed", changed).Msg("migrations applied")
		repo = diagnosis.NewRepository(db)
		feedbackRepo = feedback.NewRepository(db)
	} else {
		logger.Warn().Msg("DATABASE_URL is not set, sessions and feedback are kept in memory")
	}

	// 2. Clients
	oracle := agent.NewOracleClient(cfg.OracleBaseURL, cfg.OracleTimeout, logger)
	planner := agent.NewTreatmentClient(cfg.TreatmentURL, cfg.TreatmentTimeout, logger)

	// Typed as interfaces so a disabled client stays a true nil.
	var tg report.TelegramClient
	var notifier feedback.Notifier
	if cfg.ReportsEnabled() {
		client := telegram.NewClient(cfg.TelegramBotToken)
		tg = client
		notifier = client
	} else {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID is not set, prescriptions and feedback will not be sent to a doctor")
	}
	var fonts []string
	if cfg.PDFFontPath != "" {
		fonts = []string{cfg.PDFFontPath}
	}

	// 3. Services
	reportSvc := report.NewService(tg, cfg.DoctorChatID, fonts, logger)
	diagnosisSvc := diagnosis.NewService(repo, oracle, session.NewMemoryTokenStore(), cat, logger)
	treatmentSvc := treatment.NewService(disease.NewValidator(cat, cfg.DiseaseRules()), planner, reportSvc, logger)
	feedbackSvc := feedback.NewService(feedbackRepo, notifier, cfg.DoctorChatID, logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		diagnosis.RegisterRoutes(r, diagnosis.NewHandler(diagnosisSvc))
		treatment.RegisterRoutes(r, treatment.NewHandler(treatmentSvc))
		feedback.RegisterRoutes(r, feedback.NewHandler(feedbackSvc))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// corsHandler allows browser clients served from origin. Credentials are
// only allowed for an explicit origin.
func corsHandler(origin string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: origin != "*",
	}).Handler
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	run := func(d database.Direction) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			changed, err := database.Migrate(dir, cfg.DatabaseURL, d)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No change.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully.")
			return nil
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  run(database.Up),
	}
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  run(database.Down),
	}
	for _, c := range []*cobra.Command{upCmd, downCmd} {
		c.Flags().String("dir", "", "Migrations source URL (defaults to MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}
