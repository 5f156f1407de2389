package app

import (
	"net/http"
)

// NewTransport is the single RoundTripper shared by the telemetry client
// and the mail sender, injectable so tests can stub the network.
func NewTransport() http.RoundTripper {
	return http.DefaultTransport
}
