// Package metrics defines the run-level instruments forgehub emits while
// driving a namespace through expansion, solving, and the remote pipeline,
// and a Prometheus-backed exporter for scraping them (spec ambient stack).
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "forgehub"

// Instruments holds every counter and histogram a run touches. A
// zero-value Instruments is safe to embed but every method is a no-op until
// New populates it.
type Instruments struct {
	tiersProcessed    metric.Int64Counter
	entitiesRead      metric.Int64Counter
	entitiesCompared  metric.Int64Counter
	entitiesApplied   metric.Int64Counter
	entitiesFailed    metric.Int64Counter
	phantomReferences metric.Int64Counter
	batchDuration     metric.Float64Histogram
}

// New builds Instruments against the global MeterProvider (installed by
// StartServer, or the otel no-op default if the exporter was never started).
func New() (*Instruments, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	var (
		ins Instruments
		err error
	)

	ins.tiersProcessed, err = meter.Int64Counter(
		"forgehub_tiers_processed_total",
		metric.WithDescription("Dependency tiers drained by the processor"))
	if err != nil {
		return nil, fmt.Errorf("metrics: tiers_processed: %w", err)
	}

	ins.entitiesRead, err = meter.Int64Counter(
		"forgehub_entities_read_total",
		metric.WithDescription("Entities whose observed state was read from the hub"))
	if err != nil {
		return nil, fmt.Errorf("metrics: entities_read: %w", err)
	}

	ins.entitiesCompared, err = meter.Int64Counter(
		"forgehub_entities_compared_total",
		metric.WithDescription("Entities diffed against observed state"))
	if err != nil {
		return nil, fmt.Errorf("metrics: entities_compared: %w", err)
	}

	ins.entitiesApplied, err = meter.Int64Counter(
		"forgehub_entities_applied_total",
		metric.WithDescription("Entities whose changes were applied to the hub"))
	if err != nil {
		return nil, fmt.Errorf("metrics: entities_applied: %w", err)
	}

	ins.entitiesFailed, err = meter.Int64Counter(
		"forgehub_entities_failed_total",
		metric.WithDescription("Entities that settled to FAILED, including upstream cascades"))
	if err != nil {
		return nil, fmt.Errorf("metrics: entities_failed: %w", err)
	}

	ins.phantomReferences, err = meter.Int64Counter(
		"forgehub_phantom_references_total",
		metric.WithDescription("References to undeclared entities encountered while solving"))
	if err != nil {
		return nil, fmt.Errorf("metrics: phantom_references: %w", err)
	}

	ins.batchDuration, err = meter.Float64Histogram(
		"forgehub_batch_duration_seconds",
		metric.WithDescription("Latency of one multicall batch against the hub"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60))
	if err != nil {
		return nil, fmt.Errorf("metrics: batch_duration: %w", err)
	}

	return &ins, nil
}

func (m *Instruments) TierProcessed(ctx context.Context, tier int) {
	if m == nil || m.tiersProcessed == nil {
		return
	}
	m.tiersProcessed.Add(ctx, 1, metric.WithAttributes())
	_ = tier
}

func (m *Instruments) EntitiesRead(ctx context.Context, n int64) {
	if m == nil || m.entitiesRead == nil || n == 0 {
		return
	}
	m.entitiesRead.Add(ctx, n)
}

func (m *Instruments) EntitiesCompared(ctx context.Context, n int64) {
	if m == nil || m.entitiesCompared == nil || n == 0 {
		return
	}
	m.entitiesCompared.Add(ctx, n)
}

func (m *Instruments) EntitiesApplied(ctx context.Context, n int64) {
	if m == nil || m.entitiesApplied == nil || n == 0 {
		return
	}
	m.entitiesApplied.Add(ctx, n)
}

func (m *Instruments) EntitiesFailed(ctx context.Context, reason string, n int64) {
	if m == nil || m.entitiesFailed == nil || n == 0 {
		return
	}
	m.entitiesFailed.Add(ctx, n, metric.WithAttributes(failReasonAttr(reason)))
}

func (m *Instruments) PhantomReference(ctx context.Context) {
	if m == nil || m.phantomReferences == nil {
		return
	}
	m.phantomReferences.Add(ctx, 1)
}

func (m *Instruments) BatchDuration(ctx context.Context, phase string, seconds float64) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.Record(ctx, seconds, metric.WithAttributes(phaseAttr(phase)))
}
