package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, 32, config.PageBudget)
	assert.Equal(t, 10*time.Second, config.WaitTimeout)
	assert.Equal(t, 1*time.Second, config.ReadyPollInterval)
	assert.Equal(t, 30, config.LoadPolls)
	assert.Equal(t, 3, config.CardRetryAttempts)
	assert.Equal(t, 500*time.Millisecond, config.ScrollPauseMin)
	assert.Equal(t, 1000*time.Millisecond, config.ScrollPauseMax)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, "collections", config.RedisStream)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, "redis", config.NotifyDriver)
	assert.Equal(t, "Eusébio", config.DefaultLocality)
	assert.Equal(t, "CE", config.DefaultRegion)
	assert.True(t, config.Headless)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	os.Setenv("VIVAREAL_URL", "https://example.com/venda")
	os.Setenv("PAGE_BUDGET", "12")
	os.Setenv("WAIT_TIMEOUT_SECONDS", "5")
	os.Setenv("CARD_RETRY_ATTEMPTS", "2")
	os.Setenv("HEADLESS", "false")
	os.Setenv("NOTIFY_DRIVER", "smtp")

	config = LoadConfig()
	assert.Equal(t, "https://example.com/venda", config.BaseURL)
	assert.Equal(t, 12, config.PageBudget)
	assert.Equal(t, 5*time.Second, config.WaitTimeout)
	assert.Equal(t, 2, config.CardRetryAttempts)
	assert.False(t, config.Headless)
	assert.Equal(t, "smtp", config.NotifyDriver)
	assert.NoError(t, config.Validate())

	// Clean up
	os.Unsetenv("VIVAREAL_URL")
	os.Unsetenv("PAGE_BUDGET")
	os.Unsetenv("WAIT_TIMEOUT_SECONDS")
	os.Unsetenv("CARD_RETRY_ATTEMPTS")
	os.Unsetenv("HEADLESS")
	os.Unsetenv("NOTIFY_DRIVER")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.PageBudget = 0
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.BaseURL = ""
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.ScrollPauseMin = 2 * time.Second
	config.ScrollPauseMax = 1 * time.Second
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.NotifyDriver = "pigeon"
	assert.Error(t, config.Validate())
}
