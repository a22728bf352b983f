// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/advisorhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	var cfg *config.Config
	cmd := &cli.Command{
		Flags: config.Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg = config.NewFromCLI(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	require.NotNil(t, cfg)
	return cfg
}

func TestNewFromCLI_Defaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 1, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Cleanup.Interval)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.TLS)
}

func TestNewFromCLI_ExplicitBaseURL(t *testing.T) {
	cfg := parseConfig(t, "--base-url", "https://app.advisorhub.example")

	assert.Equal(t, "https://app.advisorhub.example", cfg.Server.BaseURL)
}

func TestNewFromCLI_NonLocalhostUsesHTTPS(t *testing.T) {
	cfg := parseConfig(t, "--host", "advisorhub.example", "--port", "443")

	assert.Equal(t, "https://advisorhub.example", cfg.Server.BaseURL)
}

func TestIsLocalhost(t *testing.T) {
	assert.True(t, config.IsLocalhost("localhost"))
	assert.True(t, config.IsLocalhost("127.0.0.1"))
	assert.True(t, config.IsLocalhost("app.localhost"))
	assert.False(t, config.IsLocalhost("advisorhub.example"))
}
