// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/advisorhub/internal/config"
	"codeberg.org/oliverandrich/advisorhub/internal/database"
	"codeberg.org/oliverandrich/advisorhub/internal/handlers"
	"codeberg.org/oliverandrich/advisorhub/internal/i18n"
	"codeberg.org/oliverandrich/advisorhub/internal/repository"
	"codeberg.org/oliverandrich/advisorhub/internal/services/auth"
	"codeberg.org/oliverandrich/advisorhub/internal/services/email"
	"codeberg.org/oliverandrich/advisorhub/internal/services/passwordreset"
	"codeberg.org/oliverandrich/advisorhub/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository
	repo := repository.New(db)

	// Services
	mailer, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to set up mailer: %w", err)
	}

	resetSvc := passwordreset.NewService(repo, mailer, &cfg.Auth)
	authSvc := auth.NewService(repo)

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sessions, err := session.NewManager(
		cfg.Session.HashKey,
		cfg.Session.BlockKey,
		cfg.Session.CookieName,
		cfg.Session.MaxAge,
		secure,
	)
	if err != nil {
		return fmt.Errorf("failed to set up sessions: %w", err)
	}
	if cfg.Session.HashKey == "" && !config.IsLocalhost(cfg.Server.Host) {
		slog.Warn("no session hash key configured, sessions will not survive restarts")
	}

	// Expired token sweeper
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go resetSvc.RunCleanup(cleanupCtx, time.Duration(cfg.Cleanup.Interval)*time.Minute)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, resetSvc, authSvc, sessions)

	return startWithGracefulShutdown(ctx, e, cfg)
}

func setupRoutes(
	e *echo.Echo,
	repo *repository.Repository,
	resetSvc *passwordreset.Service,
	authSvc *auth.Service,
	sessions *session.Manager,
) {
	h := handlers.New(repo)
	ah := handlers.NewAuth(resetSvc, authSvc, sessions)

	e.GET("/health", h.Health)

	authGroup := e.Group("/auth")
	authGroup.POST("/forgot-password", ah.ForgotPassword)
	authGroup.GET("/verify-reset-token/:token", ah.VerifyResetToken)
	authGroup.POST("/reset-password", ah.ResetPassword)
	authGroup.GET("/password-requirements", ah.PasswordRequirements)
	authGroup.POST("/login", ah.Login)
	authGroup.POST("/logout", ah.Logout)
	authGroup.GET("/me", ah.Me)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
