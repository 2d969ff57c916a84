// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Insertions counts block insertions by result: "ok" or "rejected".
var Insertions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reqbuilder_insertions_total",
	Help: "Number of blocks inserted into request trees",
}, []string{"result"})

// Generations counts programs generated per language.
var Generations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reqbuilder_generations_total",
	Help: "Number of programs generated",
}, []string{"language"})

// LoweringCache counts lowered-section cache lookups by outcome: "hit" or
// "miss".
var LoweringCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reqbuilder_lowering_cache_total",
	Help: "Lowered section cache lookups",
}, []string{"outcome"})

// Sessions is the number of live editing sessions.
var Sessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "reqbuilder_sessions",
	Help: "Number of live editing sessions",
})

// InsertionResult returns the Insertions label for err.
func InsertionResult(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}
