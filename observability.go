package prefixstore

import (
	"context"
	"time"

	"github.com/gostratum/tracingx"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumenter records Prometheus metrics and tracing spans for storage
// operations. A nil registerer disables metrics and a nil tracer disables
// spans.
type Instrumenter struct {
	tracer tracingx.Tracer

	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	bytes          *prometheus.HistogramVec
	listPages      prometheus.Counter
	skippedEntries prometheus.Counter
}

// NewInstrumenter creates the storage collectors and registers them on reg
func NewInstrumenter(reg prometheus.Registerer, tracer tracingx.Tracer) *Instrumenter {
	if reg == nil {
		return &Instrumenter{tracer: tracer}
	}

	i := &Instrumenter{
		tracer: tracer,

		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prefixstore_operations_total",
			Help: "Total number of storage operations",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prefixstore_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		bytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prefixstore_operation_bytes",
			Help:    "Storage operation payload size in bytes",
			Buckets: []float64{1024, 10240, 102400, 1024000, 10240000, 104857600, 1073741824}, // 1KB to 1GB
		}, []string{"operation"}),
		listPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prefixstore_list_pages_total",
			Help: "Number of list-objects pages fetched",
		}),
		skippedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prefixstore_list_skipped_entries_total",
			Help: "Number of listed entries skipped because they carried no key",
		}),
	}

	reg.MustRegister(i.operations, i.duration, i.bytes, i.listPages, i.skippedEntries)
	return i
}

func (i *Instrumenter) enabled() bool {
	return i != nil && i.operations != nil
}

// ObserveOperation runs fn inside a storage.<operation> client span and
// records its outcome and duration. key is the logical name or directory.
func (i *Instrumenter) ObserveOperation(ctx context.Context, operation, key string, fn func(ctx context.Context) error) error {
	var span tracingx.Span
	if i != nil && i.tracer != nil {
		ctx, span = i.tracer.Start(ctx, "storage."+operation,
			tracingx.WithSpanKind(tracingx.SpanKindClient),
			tracingx.WithAttributes(map[string]any{
				"storage.operation": operation,
				"storage.key":       key,
			}),
		)
		defer span.End()
		ctx = tracingx.ContextWithSpan(ctx, span)
	}

	start := time.Now()
	err := fn(ctx)

	if i.enabled() {
		status := "success"
		if err != nil {
			status = "error"
		}
		i.operations.WithLabelValues(operation, status).Inc()
		i.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if span != nil && err != nil {
		span.SetError(err)
	}

	return err
}

// SetSpanTag tags the span opened by ObserveOperation, if any
func (i *Instrumenter) SetSpanTag(ctx context.Context, key string, value any) {
	if i == nil || i.tracer == nil {
		return
	}
	if span := tracingx.SpanFromContext(ctx); span != nil {
		span.SetTag(key, value)
	}
}

// RecordBytes records the payload size moved by a read or write
func (i *Instrumenter) RecordBytes(operation string, size int) {
	if i.enabled() {
		i.bytes.WithLabelValues(operation).Observe(float64(size))
	}
}

// RecordListPage counts one fetched listing page
func (i *Instrumenter) RecordListPage() {
	if i.enabled() {
		i.listPages.Inc()
	}
}

// RecordSkippedEntry counts a listing entry dropped for lacking a key
func (i *Instrumenter) RecordSkippedEntry() {
	if i.enabled() {
		i.skippedEntries.Inc()
	}
}
