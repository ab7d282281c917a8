// Package metrics implements the observability hooks on Prometheus.
//
// One [Metrics] value satisfies every hook interface. Register it at startup
// and expose the registry over HTTP:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	m.Install()
//	http.Handle("/metrics", promhttp.Handler())
//
// All metric operations are safe for concurrent use.
package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/observability"
)

const namespace = "nunet"

const (
	designSubsystem   = "design"
	pipelineSubsystem = "pipeline"
	cacheSubsystem    = "cache"
	storageSubsystem  = "storage"
)

// Metrics holds the Prometheus collectors behind the hooks.
type Metrics struct {
	// MutationsTotal counts mutation attempts.
	// Labels: op (add_neuron, move_neuron, ...), code (ok or the error code)
	MutationsTotal *prometheus.CounterVec

	// UndosTotal counts undone actions.
	// Labels: record (add_synapse, remove_neuron, ...)
	UndosTotal *prometheus.CounterVec

	// Violations reports the violation count of the last validation.
	Violations prometheus.Gauge

	// StageDuration measures pipeline stage latency.
	// Labels: stage (validate, generate, render), status (ok, error)
	StageDuration *prometheus.HistogramVec

	// GeneratedNeurons observes the size of generated networks.
	GeneratedNeurons prometheus.Histogram

	// CacheRequestsTotal counts cache lookups.
	// Labels: key_type (plan, render), result (hit, miss)
	CacheRequestsTotal *prometheus.CounterVec

	// CacheBytesTotal counts bytes written to the cache.
	// Labels: key_type
	CacheBytesTotal *prometheus.CounterVec

	// StorageDuration measures storage backend latency.
	// Labels: backend (file, sqlite, redis, mongo), op, status
	StorageDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MutationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: designSubsystem,
			Name:      "mutations_total",
			Help:      "Design mutations by operation and result code.",
		}, []string{"op", "code"}),
		UndosTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: designSubsystem,
			Name:      "undos_total",
			Help:      "Undone actions by record type.",
		}, []string{"record"}),
		Violations: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: designSubsystem,
			Name:      "violations",
			Help:      "Violations found by the most recent validation.",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage", "status"}),
		GeneratedNeurons: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      "generated_neurons",
			Help:      "Neuron count of generated networks.",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 12),
		}),
		CacheRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "requests_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheBytesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"key_type"}),
		StorageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "op_duration_seconds",
			Help:      "Storage backend operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op", "status"}),
	}
}

// Install registers m as the design, pipeline, cache and storage hooks.
func (m *Metrics) Install() {
	observability.SetDesignHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStorageHooks(m)
}

func (m *Metrics) OnMutation(op string, err error) {
	m.MutationsTotal.WithLabelValues(op, code(err)).Inc()
}

func (m *Metrics) OnUndo(record string) {
	m.UndosTotal.WithLabelValues(record).Inc()
}

func (m *Metrics) OnValidateComplete(_ context.Context, violations int, d time.Duration) {
	m.Violations.Set(float64(violations))
	status := "ok"
	if violations > 0 {
		status = "error"
	}
	m.StageDuration.WithLabelValues("validate", status).Observe(d.Seconds())
}

func (m *Metrics) OnGenerateStart(_ context.Context, _ string, neuronCount int) {
	m.GeneratedNeurons.Observe(float64(neuronCount))
}

func (m *Metrics) OnGenerateComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues("generate", status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues("render", status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytesTotal.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnStorageOp(_ context.Context, backend, op string, d time.Duration, err error) {
	m.StorageDuration.WithLabelValues(backend, op, status(err)).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// code maps an error to a bounded label value.
func code(err error) string {
	if err == nil {
		return "ok"
	}
	if c := errors.GetCode(err); c != "" {
		return strings.ToLower(string(c))
	}
	return "unknown"
}

var (
	_ observability.DesignHooks   = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.StorageHooks  = (*Metrics)(nil)
)
