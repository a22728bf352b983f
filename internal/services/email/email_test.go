// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"testing"

	"codeberg.org/oliverandrich/advisorhub/internal/config"
	"codeberg.org/oliverandrich/advisorhub/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "AdvisorHub",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	cfg := validSMTPConfig()

	svc, err := email.NewService(cfg, "https://app.example.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "https://app.example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg, "https://app.example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestResetURL(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://app.example.com/")
	require.NoError(t, err)

	url := svc.ResetURL("secret-token")

	assert.Equal(t, "https://app.example.com/auth/reset-password?token=secret-token", url)
}

func TestResetURL_EscapesSecret(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://app.example.com")
	require.NoError(t, err)

	url := svc.ResetURL("a&b=c")

	assert.Equal(t, "https://app.example.com/auth/reset-password?token=a%26b%3Dc", url)
}
