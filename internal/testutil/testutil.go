// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"codeberg.org/oliverandrich/advisorhub/internal/database"
	"codeberg.org/oliverandrich/advisorhub/internal/models"
	"codeberg.org/oliverandrich/advisorhub/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccount creates an active test account with the given email. The
// password is always "OldPass1!".
func NewTestAccount(t *testing.T, repo *repository.Repository, email string) *models.Account {
	t.Helper()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("OldPass1!"), bcrypt.MinCost)
	require.NoError(t, err)
	account, err := repo.CreateAccount(ctx, email, "Test Advisor", string(hash))
	require.NoError(t, err)
	return account
}

// SuspendAccount marks an account as suspended.
func SuspendAccount(t *testing.T, repo *repository.Repository, id int64) {
	t.Helper()
	require.NoError(t, repo.SetAccountStatus(context.Background(), id, models.AccountStatusSuspended))
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
