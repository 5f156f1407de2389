package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aqiwatch/lib/models"
	"aqiwatch/senders"
)

// evaluate runs one subscriber through the alert state machine:
//
//	below + reading > threshold  → claim transition, send alert
//	below + reading ≤ threshold  → nothing
//	above + reading > threshold  → nothing (already notified)
//	above + reading ≤ threshold  → re-arm (no recovery email)
//	no reading                   → skip, state unchanged
func (m *Monitor) evaluate(ctx context.Context, log *zap.SugaredLogger, sub *models.Subscriber, tally *tickTally) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	reading, err := m.source.LatestReading(fetchCtx, sub.ChannelID, sub.FieldNum)
	if err != nil {
		// Next tick retries naturally.
		log.Infow("Skipping subscriber, no reading",
			"email", sub.Email, "device", sub.Device, "err", err)
		tally.fetchErrors.Add(1)
		fetchErrorsTotal.Inc()
		return
	}

	tally.evaluated.Add(1)
	subscribersEvaluatedTotal.Inc()

	exceeded := reading.Value > sub.Threshold
	switch {
	case sub.LastAQIStatus == models.StatusBelow && exceeded:
		m.raise(ctx, log, sub, reading, tally)
	case sub.LastAQIStatus == models.StatusAbove && !exceeded:
		m.rearm(ctx, log, sub, tally)
	}
}

// raise claims the below→above transition before sending. The persisted
// state is authoritative: if the claim loses, someone else already
// notified; if the send then fails, the alert is logged as lost and not
// retried, since a retry without dedup could double-send.
func (m *Monitor) raise(ctx context.Context, log *zap.SugaredLogger, sub *models.Subscriber, reading models.Reading, tally *tickTally) {
	now := time.Now().UTC()

	claimed, err := m.store.CompareAndSetStatus(ctx, sub.ID, models.StatusBelow, models.StatusAbove, now)
	if err != nil {
		log.Errorw("Failed to record alert state",
			"email", sub.Email, "device", sub.Device, "err", err)
		tally.storeErrors.Add(1)
		return
	}
	if !claimed {
		statusConflictsTotal.Inc()
		return
	}

	sender, ok := m.senders["email"]
	if !ok {
		log.Errorw("Unsupported notifier platform", "platform", "email",
			"email", sub.Email, "device", sub.Device)
		tally.sendFailures.Add(1)
		sendFailuresTotal.Inc()
		return
	}

	format := senders.AlertEmailFormat{Subscriber: sub, Reading: reading}
	id, err := sender.Send(ctx, format.Subject(), format.Body(), sub.Email)
	if err != nil {
		log.Errorw("Failed to send alert, not retrying",
			"email", sub.Email, "device", sub.Device, "err", err)
		tally.sendFailures.Add(1)
		sendFailuresTotal.Inc()
		return
	}

	tally.alerted.Add(1)
	alertsSentTotal.Inc()
	log.Infow("Sent alert",
		"email", sub.Email, "device", sub.Device, "message_id", id,
		"value", reading.Value, "threshold", sub.Threshold)
}

// rearm records the recovery below threshold. No email is sent; the state
// reset alone re-enables the trigger for the next excursion.
func (m *Monitor) rearm(ctx context.Context, log *zap.SugaredLogger, sub *models.Subscriber, tally *tickTally) {
	claimed, err := m.store.CompareAndSetStatus(ctx, sub.ID, models.StatusAbove, models.StatusBelow, time.Time{})
	if err != nil {
		log.Errorw("Failed to record recovery",
			"email", sub.Email, "device", sub.Device, "err", err)
		tally.storeErrors.Add(1)
		return
	}
	if !claimed {
		statusConflictsTotal.Inc()
		return
	}

	tally.recovered.Add(1)
	log.Infow("Subscriber recovered below threshold",
		"email", sub.Email, "device", sub.Device)
}
