package models

import (
	"database/sql"

	"gorm.io/gorm"
)

// AlertStatus is the per-subscriber alert state. A subscriber is `below`
// until a reading crosses their threshold, `above` until it recovers.
type AlertStatus string

const (
	StatusBelow AlertStatus = "below"
	StatusAbove AlertStatus = "above"
)

type Subscriber struct {
	gorm.Model
	Email     string `gorm:"uniqueIndex:idx_email_device"` // Composite unique index on email & device
	Device    string `gorm:"uniqueIndex:idx_email_device"`
	ChannelID string
	FieldNum  int
	Threshold float64

	LastAlertSentAt sql.NullTime
	LastAQIStatus   AlertStatus `gorm:"column:last_aqi_status;default:'below'"`
}

type Subscribers []*Subscriber
