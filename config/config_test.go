package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig(zap.NewNop())

	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, 60*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 5, cfg.PollConcurrency)
	assert.Equal(t, "https://api.thingspeak.com", cfg.ThingSpeak.BaseURL)
	assert.Empty(t, cfg.GetReadKeys())
}

func TestNewConfig_ParsesReadKeys(t *testing.T) {
	t.Setenv("THINGSPEAK_READ_KEYS", "2873817:U0KE7VEE, 2720604:LY5PUX26")

	cfg := NewConfig(zap.NewNop())

	assert.Equal(t, map[string]string{
		"2873817": "U0KE7VEE",
		"2720604": "LY5PUX26",
	}, cfg.GetReadKeys())
}

func TestNewConfig_MalformedReadKeys(t *testing.T) {
	t.Setenv("THINGSPEAK_READ_KEYS", "missing-colon")

	assert.Panics(t, func() { NewConfig(zap.NewNop()) })
}

func TestNewConfig_PollIntervalOverride(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECS", "5")

	cfg := NewConfig(zap.NewNop())
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
}
