// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package passwordreset implements the password-reset token lifecycle:
// requesting a reset link, verifying a token and consuming it to set a new
// password.
package passwordreset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/advisorhub/internal/config"
	"codeberg.org/oliverandrich/advisorhub/internal/models"
	"codeberg.org/oliverandrich/advisorhub/internal/repository"
	"codeberg.org/oliverandrich/advisorhub/internal/services/auth"
)

// SecretLength is the number of random bytes in a reset secret.
const SecretLength = 32

var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidToken       = errors.New("invalid reset token")
	ErrTokenExpiredOrUsed = errors.New("reset token is expired or already used")
	ErrAccountInactive    = errors.New("account is not active")
	ErrDispatchFailed     = errors.New("failed to send reset email")
)

// Mailer delivers the reset link. Implemented by the email service.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, displayName, secret string, expiresAt time.Time) error
}

// Service orchestrates the reset flow on top of the token store.
type Service struct {
	repo      *repository.Repository
	mailer    Mailer
	validator *auth.PasswordValidator
	tokenTTL  time.Duration
	cost      int
}

// NewService creates a new password reset service.
func NewService(repo *repository.Repository, mailer Mailer, cfg *config.AuthConfig) *Service {
	ttl := time.Duration(cfg.ResetTokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Service{
		repo:      repo,
		mailer:    mailer,
		validator: auth.DefaultPasswordValidator(),
		tokenTTL:  ttl,
		cost:      cfg.BcryptCost,
	}
}

// TokenTTL returns the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// RequestMeta carries audit metadata captured from the inbound request.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Request starts a reset for the given email. Whether the email belongs to an
// active account is never revealed to the caller: unknown and inactive
// accounts are logged and silently ignored, so the handler can respond with
// the same generic message either way. Only a malformed email (ErrInvalidEmail)
// and a failed dispatch (ErrDispatchFailed) are reported.
func (s *Service) Request(ctx context.Context, email string, meta RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("reset_request_ignored", "email", email, "reason", "account_not_found")
			return nil
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.IsActive() {
		slog.Info("reset_request_ignored", "email", email, "reason", "account_inactive", "status", account.Status)
		return nil
	}

	// At most one valid token per account: close out prior requests first.
	invalidated, err := s.repo.InvalidateAccountResetTokens(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("failed to invalidate prior tokens: %w", err)
	}
	if invalidated > 0 {
		slog.Info("reset_tokens_invalidated", "account_id", account.ID, "count", invalidated)
	}

	secret, secretHash, err := GenerateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate reset secret: %w", err)
	}

	token := &models.ResetToken{
		AccountID:       account.ID,
		Email:           email,
		SecretHash:      secretHash,
		ExpiresAt:       time.Now().Add(s.tokenTTL).UTC(),
		RequestedFromIP: meta.IP,
		UserAgent:       meta.UserAgent,
	}
	if err := s.repo.CreateResetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, email, account.DisplayName, secret, token.ExpiresAt); err != nil {
		// Do not leave a valid token behind that was never delivered.
		if delErr := s.repo.DeleteResetToken(ctx, token.ID); delErr != nil {
			slog.Error("reset_token_cleanup_failed", "token_id", token.ID, "error", delErr)
		}
		slog.Error("reset_dispatch_failed", "account_id", account.ID, "error", err)
		return ErrDispatchFailed
	}

	slog.Info("reset_requested", "account_id", account.ID, "token_id", token.ID, "expires_at", token.ExpiresAt)
	return nil
}

// TokenInfo is the non-sensitive description of a valid token, intended for a
// confirmation UI.
type TokenInfo struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Verify checks a token without consuming it. Read-only and safe to call any
// number of times.
func (s *Service) Verify(ctx context.Context, secret string) (*TokenInfo, error) {
	token, account, err := s.lookup(ctx, secret)
	if err != nil {
		return nil, err
	}

	return &TokenInfo{
		Email:       token.Email,
		DisplayName: account.DisplayName,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// Consume sets a new password for the token's account and marks the token
// used. The token is claimed with an atomic conditional update before the
// credential is touched, so of two concurrent calls only one can succeed; the
// loser observes ErrTokenExpiredOrUsed.
func (s *Service) Consume(ctx context.Context, secret, newPassword string) error {
	token, account, err := s.lookup(ctx, secret)
	if err != nil {
		return err
	}

	if result := s.validator.Validate(newPassword); !result.Valid {
		return &auth.PasswordValidationError{Errors: result.Errors}
	}

	passwordHash, err := auth.HashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}

	if err := s.repo.ConsumeResetToken(ctx, token.SecretHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race or expired between lookup and claim.
			return ErrTokenExpiredOrUsed
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	if err := s.repo.UpdateAccountPassword(ctx, account.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// A successful reset closes out every other attempt in flight.
	if _, err := s.repo.InvalidateAccountResetTokens(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to invalidate sibling tokens: %w", err)
	}

	slog.Info("reset_consumed", "account_id", account.ID, "token_id", token.ID)
	return nil
}

// lookup resolves a secret to its token and account, applying the shared
// validity checks of Verify and Consume.
func (s *Service) lookup(ctx context.Context, secret string) (*models.ResetToken, *models.Account, error) {
	token, err := s.repo.GetResetTokenBySecretHash(ctx, HashSecret(secret))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	if !token.Valid(time.Now()) {
		return nil, nil, ErrTokenExpiredOrUsed
	}

	account, err := s.repo.GetAccountByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAccountInactive
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !account.IsActive() {
		return nil, nil, ErrAccountInactive
	}

	return token, account, nil
}

// CleanupExpired deletes all tokens past their expiry. Idempotent and safe to
// run concurrently with live traffic.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredResetTokens(ctx, time.Now())
}

// RunCleanup sweeps expired tokens at the given interval until the context is
// cancelled.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.CleanupExpired(ctx)
			if err != nil {
				slog.Error("reset_token_sweep_failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("reset_tokens_swept", "deleted", deleted)
			}
		}
	}
}

// GenerateSecret generates a new reset secret.
// Returns (plaintext secret, SHA256 hash for storage, error).
func GenerateSecret() (string, string, error) {
	bytes := make([]byte, SecretLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(bytes)
	return plaintext, HashSecret(plaintext), nil
}

// HashSecret computes the SHA256 hash of a secret.
func HashSecret(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}
