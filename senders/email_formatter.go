package senders

import (
	"fmt"

	"aqiwatch/lib/models"
)

type AlertEmailFormat struct {
	Subscriber *models.Subscriber
	Reading    models.Reading
}

func (ef *AlertEmailFormat) Subject() string {
	return fmt.Sprintf("AQI Alert for %s", ef.Subscriber.Device)
}

func (ef *AlertEmailFormat) Body() string {
	return fmt.Sprintf(
		"Air Quality Alert for %s:\nAQI = %g (Threshold = %g)",
		ef.Subscriber.Device, ef.Reading.Value, ef.Subscriber.Threshold,
	)
}
