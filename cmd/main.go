/*
Package main is the entry point for the pairing relay.

It loads configuration, initializes the global logging system, builds the portfolio sources,
starts the pairing Router's event loop and the HTTP server, and handles operating system
interrupt signals (SIGINT, SIGTERM) for a graceful shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"pairrelay/internal/app/pairing"
	"pairrelay/internal/app/portfolio"
	"pairrelay/internal/configs"
	"pairrelay/internal/handler"
	"pairrelay/internal/pkg/limiter"
	"pairrelay/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logx.Setup(logx.Options{Level: cfg.LogLevel, Console: cfg.Environment == "development"}); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("log_level", logx.Logger().GetLevel().String()).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("availability_policy", cfg.AvailabilityPolicy).
		Str("match_mode", cfg.MatchMode).
		Dur("session_timeout", cfg.SessionTimeout).
		Bool("s3_portfolio", cfg.S3Enabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	portfolioService, err := buildPortfolio(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to initialize portfolio sources")
	}

	// Start the pairing event loop
	router := pairing.NewRouter(pairing.OptionsFromConfig(cfg), portfolioService)
	go router.Run()

	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(handler.ConnectRate), handler.ConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(rate.Limit(handler.APIRate), handler.APIBurst)

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Pairing:        router,
		Config:         cfg,
		ConnectLimiter: connectLimiter,
		APILimiter:     apiLimiter,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler.Router(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Pair Relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not covered by server.Shutdown; the router closes them.
	router.Shutdown()
	connectLimiter.Stop()
	apiLimiter.Stop()

	logx.Info("Server gracefully stopped.")
}

// buildPortfolio registers the SFTP source and, when configured, the S3 source.
func buildPortfolio(ctx context.Context, cfg *configs.AppConfig) (*portfolio.Service, error) {
	service := portfolio.NewService(cfg.PortfolioTimeout)

	sftpSource, err := portfolio.NewSFTPSource(cfg.SFTPKnownHosts, cfg.PortfolioTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.SFTPKnownHosts == "" {
		logx.Warn("SFTP_KNOWN_HOSTS not set, SFTP host keys will not be verified.")
	}
	service.Register(portfolio.SourceSFTP, sftpSource)

	if cfg.S3Enabled() {
		s3Source, err := portfolio.NewS3Source(ctx, portfolio.S3Config{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		service.Register(portfolio.SourceS3, s3Source)
		logx.Info("S3 portfolio source enabled.", "bucket", cfg.S3BucketName)
	}

	return service, nil
}
