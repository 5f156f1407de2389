package monitor

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqiwatch_ticks_total",
			Help: "Total evaluation ticks by outcome",
		},
		[]string{"status"}, // completed, skipped, errored
	)

	subscribersEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqiwatch_subscribers_evaluated_total",
			Help: "Total subscriber evaluations with a usable reading",
		},
	)

	alertsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqiwatch_alerts_sent_total",
			Help: "Total threshold-crossing alert emails sent",
		},
	)

	fetchErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqiwatch_fetch_errors_total",
			Help: "Total telemetry fetches that returned no data",
		},
	)

	sendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqiwatch_send_failures_total",
			Help: "Total alert emails that failed after the state transition was recorded",
		},
	)

	statusConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqiwatch_status_conflicts_total",
			Help: "Total state transitions lost to a concurrent evaluation",
		},
	)
)

// tickTally is the per-tick summary reported in the completion log line.
type tickTally struct {
	evaluated    atomic.Int64
	alerted      atomic.Int64
	recovered    atomic.Int64
	fetchErrors  atomic.Int64
	sendFailures atomic.Int64
	storeErrors  atomic.Int64
}

func (t *tickTally) logArgs() []any {
	args := make([]any, 0)
	if n := t.evaluated.Load(); n != 0 {
		args = append(args, "evaluated", n)
	}
	if n := t.alerted.Load(); n != 0 {
		args = append(args, "alerted", n)
	}
	if n := t.recovered.Load(); n != 0 {
		args = append(args, "recovered", n)
	}
	if n := t.fetchErrors.Load(); n != 0 {
		args = append(args, "fetch_errors", n)
	}
	if n := t.sendFailures.Load(); n != 0 {
		args = append(args, "send_failures", n)
	}
	if n := t.storeErrors.Load(); n != 0 {
		args = append(args, "store_errors", n)
	}
	return args
}
