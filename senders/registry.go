package senders

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"aqiwatch/config"
)

// Sender delivers one message to one recipient. Implementations do not
// retry; a failed send is reported to the caller and nothing else.
type Sender interface {
	Send(ctx context.Context, subject, body, recipient string) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"email": &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
