package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "voltio",
	Subsystem: "hub",
	Name:      "updates_dropped_total",
	Help:      "Project updates skipped because a subscriber buffer was full.",
})
