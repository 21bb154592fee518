package source

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const metricsNamespace = "metatree"

var tracer = otel.Tracer("metatree.source")

type (
	// Metrics are the fetch metrics recorded by Instrument.
	Metrics struct {
		// FetchesTotal counts fetches. Labels: type (entity type), status (success, error)
		FetchesTotal *prometheus.CounterVec

		// RowsTotal counts fetched rows. Labels: type
		RowsTotal *prometheus.CounterVec

		// FetchDurationSeconds measures fetch latency. Labels: type
		FetchDurationSeconds *prometheus.HistogramVec
	}

	instrumented struct {
		next    catalog.Fetcher
		metrics *Metrics
	}
)

// NewMetrics creates and registers the fetch metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Total number of data source fetches by entity type and status",
		}, []string{"type", "status"}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "rows_total",
			Help:      "Total number of rows returned by the data source by entity type",
		}, []string{"type"}),
		FetchDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of data source fetches by entity type",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
}

// Instrument wraps next so every fetch is counted, timed and traced.
func Instrument(next catalog.Fetcher, metrics *Metrics) catalog.Fetcher {
	return &instrumented{next: next, metrics: metrics}
}

func (f *instrumented) Fetch(ctx context.Context, req catalog.Request) ([]catalog.Row, error) {
	typ := req.Pattern.Type()

	ctx, span := tracer.Start(ctx, "Fetcher.Fetch",
		trace.WithAttributes(
			attribute.String("metatree.pattern", req.Pattern.String()),
			attribute.String("metatree.type", typ),
			attribute.StringSlice("metatree.fields", req.Fields),
		),
	)
	defer span.End()

	start := time.Now()
	rows, err := f.next.Fetch(ctx, req)
	f.metrics.FetchDurationSeconds.WithLabelValues(typ).Observe(time.Since(start).Seconds())

	if err != nil {
		f.metrics.FetchesTotal.WithLabelValues(typ, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	f.metrics.FetchesTotal.WithLabelValues(typ, "success").Inc()
	f.metrics.RowsTotal.WithLabelValues(typ).Add(float64(len(rows)))
	span.SetAttributes(attribute.Int("metatree.rows", len(rows)))
	return rows, nil
}
