package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"birdbox/internal/config"
	"birdbox/internal/database"
	"birdbox/internal/handlers"
	"birdbox/internal/logging"
	"birdbox/internal/metrics"
	"birdbox/internal/repository"
	"birdbox/internal/security"
	"birdbox/internal/service"
	"birdbox/migrations"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", db.Dialect.Name()).Msg("Database connection established")

	if err := db.RunMigrations(ctx, migrationsFS(cfg)); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	log.Info().Msg("Migrations completed successfully")

	m, err := metrics.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	speciesRepo := repository.NewSpeciesRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), cfg.SessionDuration)
	speciesService := service.NewSpeciesService(speciesRepo, cfg.SpeciesCacheTTL, m)
	checklistService := service.NewChecklistService(db, checklistRepo, speciesService, m)
	statsService := service.NewStatsService(statsRepo, speciesService)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize email service, welcome emails disabled")
		emailService = nil
	}

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(ctx, cfg.LoginRateLimit, cfg.LoginRateWindow)
	middleware := handlers.NewMiddleware(authService, csrf, limiter, m, cfg.RequestTimeout)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService, emailService, csrf),
		Species:   handlers.NewSpeciesHandler(speciesService),
		Checklist: handlers.NewChecklistHandler(checklistService),
		Stats:     handlers.NewStatsHandler(statsService),
		Health:    handlers.NewHealthHandler(db),
	})
	mux.Handle("GET /metrics", m.Handler())

	handler := handlers.Logging(middleware.Timeout(middleware.Metrics(mux)))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, authService)

	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// migrationsFS returns the embedded migrations unless a directory override is configured
func migrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsPath != "" {
		return os.DirFS(cfg.MigrationsPath)
	}
	return migrations.FS
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("Error cleaning up expired sessions")
			}
		}
	}
}
