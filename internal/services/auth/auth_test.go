// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/advisorhub/internal/services/auth"
	"codeberg.org/oliverandrich/advisorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := auth.NewService(repo)
	ctx := context.Background()

	created := testutil.NewTestAccount(t, repo, "advisor@example.com")

	account, err := svc.Login(ctx, "advisor@example.com", "OldPass1!")

	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := auth.NewService(repo)

	_, err := svc.Login(context.Background(), "missing@example.com", "OldPass1!")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := auth.NewService(repo)

	testutil.NewTestAccount(t, repo, "advisor@example.com")

	_, err := svc.Login(context.Background(), "advisor@example.com", "WrongPass1!")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := auth.NewService(repo)

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	testutil.SuspendAccount(t, repo, account.ID)

	_, err := svc.Login(context.Background(), "advisor@example.com", "OldPass1!")

	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}
