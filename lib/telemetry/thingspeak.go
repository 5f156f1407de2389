// Package telemetry reads the latest sensor values from ThingSpeak.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"aqiwatch/config"
	"aqiwatch/lib/models"
)

// ErrNoData is returned whenever a reading cannot be obtained: network
// failure, non-2xx response, malformed payload, or a missing/non-numeric
// field. The caller's next tick is the retry mechanism.
var ErrNoData = errors.New("telemetry: no data")

type Client struct {
	log       *zap.Logger
	transport http.RoundTripper

	baseURL  string
	readKeys map[string]string
}

func NewClient(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Client {
	return &Client{
		log:       log,
		transport: transport,
		baseURL:   cfg.ThingSpeak.BaseURL,
		readKeys:  cfg.GetReadKeys(),
	}
}

// LatestReading fetches the most recent value of one field on one channel.
// It performs a single request, never touches the store, and never returns
// an error other than ErrNoData.
func (c *Client) LatestReading(ctx context.Context, channelID string, fieldNum int) (models.Reading, error) {
	reading := models.Reading{ChannelID: channelID, FieldNum: fieldNum}

	var payload map[string]any
	builder := requests.
		URL(c.baseURL).
		Pathf("/channels/%s/fields/%d/last.json", channelID, fieldNum).
		Transport(c.transport).
		ToJSON(&payload)
	if key, ok := c.readKeys[channelID]; ok {
		builder = builder.Param("api_key", key)
	}

	if err := builder.Fetch(ctx); err != nil {
		c.log.Sugar().Warnw("Failed to fetch reading",
			"channel_id", channelID, "field_num", fieldNum, "err", err)
		return reading, ErrNoData
	}

	value, err := fieldValue(payload, fieldNum)
	if err != nil {
		c.log.Sugar().Warnw("No usable value in feed",
			"channel_id", channelID, "field_num", fieldNum, "err", err)
		return reading, ErrNoData
	}

	reading.Value = value
	return reading, nil
}

// ThingSpeak serializes field values as strings; tolerate bare numbers too.
func fieldValue(payload map[string]any, fieldNum int) (float64, error) {
	raw, ok := payload[fmt.Sprintf("field%d", fieldNum)]
	if !ok || raw == nil {
		return 0, fmt.Errorf("field%d missing from feed", fieldNum)
	}

	var value float64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("field%d is not numeric: %q", fieldNum, v)
		}
		value = parsed
	case float64:
		value = v
	default:
		return 0, fmt.Errorf("field%d has unexpected type %T", fieldNum, raw)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("field%d is not a finite number", fieldNum)
	}
	return value, nil
}
