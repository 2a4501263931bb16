// Package metrics exposes Prometheus metrics for conversations, policy calls,
// tool invocations and the response cache.
//
// A Collector owns its registry, so several collectors (for example one per
// test) never clash on metric names. It satisfies conversation.Observer,
// tool.Observer and cache.Observer and can be passed to all three.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentchat/cache"
	"github.com/hupe1980/agentchat/conversation"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "agentchat"

var (
	_ conversation.Observer = (*Collector)(nil)
	_ tool.Observer         = (*Collector)(nil)
	_ cache.Observer        = (*Collector)(nil)
)

// Collector records agentchat metrics.
type Collector struct {
	registry *prometheus.Registry
	logger   logging.Logger

	sessionsTotal   *prometheus.CounterVec
	sessionRounds   *prometheus.HistogramVec
	sessionDuration *prometheus.HistogramVec
	roundsTotal     *prometheus.CounterVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
}

// Options configure a Collector.
type Options struct {
	Namespace string
	Logger    logging.Logger
}

// NewCollector creates a collector backed by a fresh registry.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := Options{Namespace: DefaultNamespace}
	for _, fn := range optFns {
		fn(&opts)
	}
	ns := opts.Namespace

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logging.OrNoOp(opts.Logger),
	}

	c.sessionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "sessions_total",
			Help:      "Finished conversation sessions by kind and terminal state",
		},
		[]string{"kind", "state"},
	)

	c.sessionRounds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "session_rounds",
			Help:      "Rounds per finished session",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 15, 20, 30, 50},
		},
		[]string{"kind"},
	)

	c.sessionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "session_duration_seconds",
			Help:      "Session wall time in seconds",
			Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	c.roundsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "rounds_total",
			Help:      "Messages emitted by speakers",
		},
		[]string{"kind", "speaker"},
	)

	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "llm_requests_total",
			Help:      "Policy backend calls",
		},
		[]string{"agent", "model", "status", "cached"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "llm_request_duration_seconds",
			Help:      "Policy backend call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "llm_tokens_used_total",
			Help:      "Total tokens reported by the policy backend",
		},
		[]string{"agent", "model"},
	)

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	c.toolCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	c.cacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)

	c.logger.Debug("metrics.collector.created", "namespace", ns)
	return c
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSession implements conversation.Observer.
func (c *Collector) ObserveSession(kind, state string, rounds int, dur time.Duration) {
	c.sessionsTotal.WithLabelValues(kind, state).Inc()
	c.sessionRounds.WithLabelValues(kind).Observe(float64(rounds))
	c.sessionDuration.WithLabelValues(kind).Observe(dur.Seconds())
}

// ObserveRound implements conversation.Observer.
func (c *Collector) ObserveRound(kind, speaker string) {
	c.roundsTotal.WithLabelValues(kind, speaker).Inc()
}

// ObserveLLMCall implements agent.LLMObserver.
func (c *Collector) ObserveLLMCall(agentName, model string, dur time.Duration, tokens int, cached bool, err error) {
	c.llmRequestsTotal.WithLabelValues(agentName, model, status(err), strconv.FormatBool(cached)).Inc()
	c.llmRequestDuration.WithLabelValues(agentName, model).Observe(dur.Seconds())
	if tokens > 0 {
		c.llmTokensUsed.WithLabelValues(agentName, model).Add(float64(tokens))
	}
}

// ObserveToolCall implements tool.Observer.
func (c *Collector) ObserveToolCall(toolName string, dur time.Duration, err error) {
	c.toolCallsTotal.WithLabelValues(toolName, status(err)).Inc()
	c.toolCallDuration.WithLabelValues(toolName).Observe(dur.Seconds())
}

// ObserveCacheLookup implements cache.Observer.
func (c *Collector) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
