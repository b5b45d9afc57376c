package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltio",
		Subsystem: "sync",
		Name:      "pushes_total",
		Help:      "Remote writes issued, debounced and forced.",
	})

	pushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltio",
		Subsystem: "sync",
		Name:      "push_failures_total",
		Help:      "Remote writes that returned an error.",
	})

	echoesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltio",
		Subsystem: "sync",
		Name:      "echoes_suppressed_total",
		Help:      "Inbound updates ignored because this session wrote them.",
	})

	foreignApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltio",
		Subsystem: "sync",
		Name:      "foreign_updates_applied_total",
		Help:      "Inbound updates that replaced the local tables wholesale.",
	})
)
