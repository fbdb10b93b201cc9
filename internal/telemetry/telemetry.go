// internal/telemetry/telemetry.go
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const scope = "dbgraph"

// Telemetry holds the instruments shared by the pipeline stages. The zero
// value is not usable; use New or Noop.
type Telemetry struct {
	tracer trace.Tracer

	kmersExtracted    metric.Int64Counter
	partitionsCounted metric.Int64Counter
	partitionRetries  metric.Int64Counter
	partitionDuration metric.Float64Histogram
	solidKmers        metric.Int64Counter
	criticalKmers     metric.Int64Counter
	bloomBits         metric.Int64Gauge
}

// New creates the instruments on the given providers. Nil providers fall
// back to noop ones.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Telemetry, error) {
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	m := mp.Meter(scope)
	t := &Telemetry{tracer: tp.Tracer(scope)}

	var err error
	if t.kmersExtracted, err = m.Int64Counter("dbgraph.kmers.extracted",
		metric.WithDescription("K-mer occurrences written to partitions"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("create kmers counter: %w", err)
	}
	if t.partitionsCounted, err = m.Int64Counter("dbgraph.partitions.counted",
		metric.WithDescription("Partitions counted, by strategy"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("create partitions counter: %w", err)
	}
	if t.partitionRetries, err = m.Int64Counter("dbgraph.partitions.retried",
		metric.WithDescription("Partitions retried with the alternate strategy"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("create retries counter: %w", err)
	}
	if t.partitionDuration, err = m.Float64Histogram("dbgraph.partition.duration",
		metric.WithDescription("Time to count one partition"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	if t.solidKmers, err = m.Int64Counter("dbgraph.kmers.solid",
		metric.WithDescription("K-mers kept in the solid table"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("create solid counter: %w", err)
	}
	if t.criticalKmers, err = m.Int64Counter("dbgraph.kmers.critical",
		metric.WithDescription("Critical false positives stored for exact correction"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("create critical counter: %w", err)
	}
	if t.bloomBits, err = m.Int64Gauge("dbgraph.bloom.bits",
		metric.WithDescription("Size of the Bloom filter bit array"),
		metric.WithUnit("bit")); err != nil {
		return nil, fmt.Errorf("create bloom gauge: %w", err)
	}
	return t, nil
}

// Noop returns telemetry that records nothing.
func Noop() *Telemetry {
	t, err := New(nil, nil)
	if err != nil {
		panic(err) // noop providers never fail
	}
	return t
}

// Stage starts a span for a pipeline stage. The returned func ends it,
// recording err when non-nil.
func (t *Telemetry) Stage(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (t *Telemetry) KmersExtracted(ctx context.Context, n int64) {
	t.kmersExtracted.Add(ctx, n)
}

// PartitionCounted records one finished partition.
func (t *Telemetry) PartitionCounted(ctx context.Context, strategy string, d time.Duration) {
	opt := metric.WithAttributes(attribute.String("strategy", strategy))
	t.partitionsCounted.Add(ctx, 1, opt)
	t.partitionDuration.Record(ctx, float64(d.Microseconds())/1000, opt)
}

func (t *Telemetry) PartitionRetried(ctx context.Context, strategy string) {
	t.partitionRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
}

func (t *Telemetry) SolidKmers(ctx context.Context, n int64)    { t.solidKmers.Add(ctx, n) }
func (t *Telemetry) CriticalKmers(ctx context.Context, n int64) { t.criticalKmers.Add(ctx, n) }
func (t *Telemetry) BloomBits(ctx context.Context, n int64)     { t.bloomBits.Record(ctx, n) }
