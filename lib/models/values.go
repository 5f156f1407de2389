package models

// Reading is the latest value fetched for a subscriber's channel/field.
// Readings are ephemeral and never persisted.
type Reading struct {
	ChannelID string
	FieldNum  int
	Value     float64
}
