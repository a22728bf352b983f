// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/advisorhub/internal/models"
	"codeberg.org/oliverandrich/advisorhub/internal/repository"
	"codeberg.org/oliverandrich/advisorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToken(accountID int64, email, secretHash string, expiresAt time.Time) *models.ResetToken {
	return &models.ResetToken{
		AccountID:       accountID,
		Email:           email,
		SecretHash:      secretHash,
		ExpiresAt:       expiresAt,
		RequestedFromIP: "192.0.2.1",
		UserAgent:       "test-agent",
	}
}

func TestCreateResetToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	expiresAt := time.Now().Add(time.Hour).UTC()

	token := newToken(account.ID, account.Email, "hash-1", expiresAt)
	err := repo.CreateResetToken(ctx, token)

	require.NoError(t, err)
	assert.NotZero(t, token.ID)

	stored, err := repo.GetResetTokenBySecretHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.AccountID)
	assert.Equal(t, "advisor@example.com", stored.Email)
	assert.False(t, stored.Used)
	assert.Nil(t, stored.UsedAt)
	assert.WithinDuration(t, expiresAt, stored.ExpiresAt, time.Second)
	assert.Equal(t, "192.0.2.1", stored.RequestedFromIP)
	assert.Equal(t, "test-agent", stored.UserAgent)
}

func TestCreateResetToken_DuplicateSecretHash(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	expiresAt := time.Now().Add(time.Hour)

	require.NoError(t, repo.CreateResetToken(ctx, newToken(account.ID, account.Email, "same-hash", expiresAt)))

	err := repo.CreateResetToken(ctx, newToken(account.ID, account.Email, "same-hash", expiresAt))

	assert.Error(t, err)
}

func TestGetResetTokenBySecretHash_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetResetTokenBySecretHash(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvalidateAccountResetTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	other := testutil.NewTestAccount(t, repo, "other@example.com")
	expiresAt := time.Now().Add(time.Hour)

	require.NoError(t, repo.CreateResetToken(ctx, newToken(account.ID, account.Email, "a1", expiresAt)))
	require.NoError(t, repo.CreateResetToken(ctx, newToken(account.ID, account.Email, "a2", expiresAt)))
	require.NoError(t, repo.CreateResetToken(ctx, newToken(other.ID, other.Email, "b1", expiresAt)))

	invalidated, err := repo.InvalidateAccountResetTokens(ctx, account.ID)

	require.NoError(t, err)
	assert.EqualValues(t, 2, invalidated)

	for _, hash := range []string{"a1", "a2"} {
		token, err := repo.GetResetTokenBySecretHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, token.Used)
		assert.NotNil(t, token.UsedAt)
	}

	// The other account's token stays valid.
	token, err := repo.GetResetTokenBySecretHash(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, token.Used)
}

func TestInvalidateAccountResetTokens_SkipsExpired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "expired", time.Now().Add(-time.Hour))))

	invalidated, err := repo.InvalidateAccountResetTokens(ctx, account.ID)

	require.NoError(t, err)
	assert.Zero(t, invalidated)
}

func TestConsumeResetToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "consume-me", time.Now().Add(time.Hour))))

	err := repo.ConsumeResetToken(ctx, "consume-me")

	require.NoError(t, err)

	token, err := repo.GetResetTokenBySecretHash(ctx, "consume-me")
	require.NoError(t, err)
	assert.True(t, token.Used)
	require.NotNil(t, token.UsedAt)
	assert.WithinDuration(t, time.Now(), *token.UsedAt, 5*time.Second)
}

func TestConsumeResetToken_AlreadyUsed(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "once", time.Now().Add(time.Hour))))

	require.NoError(t, repo.ConsumeResetToken(ctx, "once"))

	err := repo.ConsumeResetToken(ctx, "once")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeResetToken_Expired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "stale", time.Now().Add(-time.Minute))))

	err := repo.ConsumeResetToken(ctx, "stale")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeResetToken_ConcurrentSingleWinner(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "contended", time.Now().Add(time.Hour))))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.ConsumeResetToken(ctx, "contended")
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, repository.ErrNotFound)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestDeleteResetToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	token := newToken(account.ID, account.Email, "doomed", time.Now().Add(time.Hour))
	require.NoError(t, repo.CreateResetToken(ctx, token))

	require.NoError(t, repo.DeleteResetToken(ctx, token.ID))

	_, err := repo.GetResetTokenBySecretHash(ctx, "doomed")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteExpiredResetTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "old", time.Now().Add(-2*time.Hour))))
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "fresh", time.Now().Add(time.Hour))))

	deleted, err := repo.DeleteExpiredResetTokens(ctx, time.Now())

	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = repo.GetResetTokenBySecretHash(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetResetTokenBySecretHash(ctx, "fresh")
	assert.NoError(t, err)
}

func TestCountValidResetTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := testutil.NewTestAccount(t, repo, "advisor@example.com")
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "v1", time.Now().Add(time.Hour))))
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "e1", time.Now().Add(-time.Hour))))
	require.NoError(t, repo.CreateResetToken(ctx,
		newToken(account.ID, account.Email, "u1", time.Now().Add(time.Hour))))
	require.NoError(t, repo.ConsumeResetToken(ctx, "u1"))

	count, err := repo.CountValidResetTokens(ctx, account.ID)

	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
