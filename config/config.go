package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

type Config struct {
	Env          string `env:"ENVIRONMENT"`
	ServerPort   int    `env:"SERVER_PORT" envDefault:"3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"aqiwatch.sqlite"`

	PollIntervalSecs int `env:"POLL_INTERVAL_SECS" envDefault:"60"`
	FetchTimeoutSecs int `env:"FETCH_TIMEOUT_SECS" envDefault:"10"`
	PollConcurrency  int `env:"POLL_CONCURRENCY" envDefault:"5"`

	ThingSpeak struct {
		BaseURL string `env:"THINGSPEAK_BASE_URL" envDefault:"https://api.thingspeak.com"`
		// Comma-separated channelId:readKey pairs. Channels without a key
		// are fetched without authentication (public channels).
		ReadKeys string `env:"THINGSPEAK_READ_KEYS"`
	}
	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log      *zap.Logger
	readKeys map[string]string
}

func NewConfig(log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		log.Sugar().Panic(err)
	}

	readKeys, err := cfg.parseReadKeys()
	if err != nil {
		cfg.log.Sugar().Panic(err)
	}
	cfg.readKeys = readKeys

	return cfg
}

func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSecs) * time.Second
}

func (cfg *Config) FetchTimeout() time.Duration {
	return time.Duration(cfg.FetchTimeoutSecs) * time.Second
}

// GetReadKeys maps channelId to its ThingSpeak read API key.
func (cfg *Config) GetReadKeys() map[string]string {
	return cfg.readKeys
}

func (cfg *Config) parseReadKeys() (map[string]string, error) {
	result := make(map[string]string)
	if cfg.ThingSpeak.ReadKeys == "" {
		return result, nil
	}

	for _, pair := range strings.Split(cfg.ThingSpeak.ReadKeys, ",") {
		channelKey := strings.Split(pair, ":")
		if len(channelKey) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each read key should be delimited by a colon -- channel1:key1,channel2:key2", pair)
		}

		channel, key := channelKey[0], channelKey[1]
		result[strings.Trim(channel, " ")] = strings.Trim(key, " ")
	}

	return result, nil
}
