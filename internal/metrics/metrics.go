package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mr1hm/disaster-scout/internal/agent"
)

var (
	AgentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Agent runs by terminal state",
		},
		[]string{"state"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_invocations_total",
			Help: "Tool invocations requested by the agent",
		},
		[]string{"tool"},
	)

	GeocodeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_results_total",
			Help: "Geocoding lookups by outcome",
		},
		[]string{"outcome"},
	)

	CommentaryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentary_results_total",
			Help: "Commentary stage results by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "End to end pipeline duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)
)

// ObserveAgent records agent events; pass it to agent.WithObserver.
func ObserveAgent(e agent.Event) {
	switch e.State {
	case agent.ToolCall:
		ToolInvocations.WithLabelValues(e.Tool).Inc()
	case agent.Done, agent.Failed:
		AgentRuns.WithLabelValues(e.State.String()).Inc()
	}
}
