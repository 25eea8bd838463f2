package metrics

import "github.com/prometheus/client_golang/prometheus"

// Agent conversation metrics.
var (
	ConversationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "agent_conversations_total",
			Help:      "Total agent conversations by terminal state",
		},
		[]string{"outcome"}, // "answered" / "failed"
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "agent_tool_calls_total",
			Help:      "Total tool calls requested by the model",
		},
		[]string{"tool", "status"}, // status: "ok" / "error" / "rejected"
	)

	ConversationTurns = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kepler",
			Name:      "agent_conversation_turns",
			Help:      "Model turns per conversation",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
	)
)

var agentMetricsRegistered bool

// RegisterAgentMetrics registers Prometheus agent metrics. Must be called once from main.
func RegisterAgentMetrics() {
	if agentMetricsRegistered {
		return
	}
	prometheus.MustRegister(ConversationsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ConversationTurns)
	agentMetricsRegistered = true
}
