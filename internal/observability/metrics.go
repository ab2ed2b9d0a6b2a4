package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	llmTokens    *CounterVec
	llmRotations *Counter

	taskIterations *CounterVec
	taskLatency    *HistogramVec
	taskActions    *CounterVec
	taskQueueDepth *GaugeVec

	eventsPublished *CounterVec
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Current returns the process registry, or nil when metrics are disabled.
// Every method is nil-safe so callers never need to check.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// Init builds the process registry when enabled. Calling it again returns the
// existing registry.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if instance == nil {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics registry initialized")
		}
	}
	return instance
}

// NewMetrics builds a standalone registry. Tests use it directly.
func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	llmLatency := []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 180}
	return &Metrics{
		apiRequests: NewCounterVec("km_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("km_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("km_api_inflight_requests", "In-flight API requests."),

		llmRequests:  NewCounterVec("km_llm_requests_total", "LLM completions by model/tier/status.", []string{"model", "tier", "status"}),
		llmLatency:   NewHistogramVec("km_llm_request_duration_seconds", "LLM completion latency in seconds.", []string{"model", "tier"}, llmLatency),
		llmTokens:    NewCounterVec("km_llm_tokens_total", "Estimated LLM tokens by model/direction.", []string{"model", "direction"}),
		llmRotations: NewCounter("km_llm_credential_rotations_total", "Credential rotations after rate-limit or auth failures."),

		taskIterations: NewCounterVec("km_task_iterations_total", "Course build iterations by outcome.", []string{"outcome"}),
		taskLatency:    NewHistogramVec("km_task_iteration_duration_seconds", "Course build iteration latency in seconds.", []string{"outcome"}, llmLatency),
		taskActions:    NewCounterVec("km_task_actions_total", "Generation actions by kind/status.", []string{"kind", "status"}),
		taskQueueDepth: NewGaugeVec("km_task_queue_depth", "Course tasks by status.", []string{"status"}),

		eventsPublished: NewCounterVec("km_events_published_total", "Realtime events published by type.", []string{"event"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens, m.llmRotations,
		m.taskIterations, m.taskLatency, m.taskActions, m.taskQueueDepth,
		m.eventsPublished,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveLLMRequest(model, tier, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	m.llmRequests.Inc(model, tier, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, tier)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) IncCredentialRotation() {
	if m == nil {
		return
	}
	m.llmRotations.Inc()
}

func (m *Metrics) CredentialRotations() float64 {
	if m == nil {
		return 0
	}
	return m.llmRotations.Value()
}

// ObserveTaskIteration records one pipeline iteration. outcome is one of
// progressed, completed, retry, failed, skipped.
func (m *Metrics) ObserveTaskIteration(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.taskIterations.Inc(outcome)
	m.taskLatency.Observe(dur.Seconds(), outcome)
}

func (m *Metrics) TaskIterations(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.taskIterations.Value(outcome)
}

func (m *Metrics) IncTaskAction(kind, status string) {
	if m == nil {
		return
	}
	m.taskActions.Inc(kind, status)
}

func (m *Metrics) IncEventPublished(event string) {
	if m == nil {
		return
	}
	m.eventsPublished.Inc(event)
}

// TaskCounter returns the number of tasks per status.
type TaskCounter func(ctx context.Context) (map[string]int64, error)

// StartTaskQueueCollector samples task counts per status every interval until
// ctx is done.
func (m *Metrics) StartTaskQueueCollector(ctx context.Context, log *logger.Logger, counter TaskCounter, interval time.Duration) {
	if m == nil || counter == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	statuses := []string{"pending", "running", "paused", "completed", "failed"}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				counts, err := counter(ctx)
				if err != nil {
					if log != nil {
						log.Warn("metrics: task queue depth query failed", "error", err)
					}
					continue
				}
				for _, s := range statuses {
					m.taskQueueDepth.Set(float64(counts[s]), s)
				}
			}
		}
	}()
}
