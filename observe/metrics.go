package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records operation and decision metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records an operation with duration and error status.
	RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordDecision counts an authorization decision.
	RecordDecision(ctx context.Context, allowed bool, reason string)

	// RecordTokenFailure counts a rejected token by failure kind.
	RecordTokenFailure(ctx context.Context, kind string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	decisionCount metric.Int64Counter
	tokenFailures metric.Int64Counter
}

// NewMetrics creates the service instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"rbacgate.op.total",
		metric.WithDescription("Total number of operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"rbacgate.op.errors",
		metric.WithDescription("Total number of failed operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"rbacgate.op.duration_ms",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	decisionCount, err := meter.Int64Counter(
		"rbacgate.authz.decisions",
		metric.WithDescription("Authorization decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	tokenFailures, err := meter.Int64Counter(
		"rbacgate.token.failures",
		metric.WithDescription("Rejected bearer tokens by failure kind"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:    totalCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		decisionCount: decisionCount,
		tokenFailures: tokenFailures,
	}, nil
}

// RecordOp records metrics for an operation.
func (m *metricsImpl) RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("op", meta.OpID()),
	}
	if meta.Component != "" {
		attrs = append(attrs, attribute.String("component", meta.Component))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// RecordDecision counts a decision as allow or deny.
func (m *metricsImpl) RecordDecision(ctx context.Context, allowed bool, reason string) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.decisionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("reason", reason),
	))
}

// RecordTokenFailure counts a rejected token.
func (m *metricsImpl) RecordTokenFailure(ctx context.Context, kind string) {
	m.tokenFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordDecision(ctx context.Context, allowed bool, reason string) {
}

func (m *noopMetrics) RecordTokenFailure(ctx context.Context, kind string) {
}
