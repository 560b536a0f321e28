package xassetretry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/omeyang/xassets/pkg/assets/xassetretry"

	metricFailures  = "xassets.retry.failures"
	metricRequests  = "xassets.retry.requests"
	metricTerminal  = "xassets.retry.terminal"
	metricSuccesses = "xassets.retry.successes"

	attrDomain = "domain"
	attrReason = "reason"
)

// engineMetrics 引擎的计数器集合。
type engineMetrics struct {
	failures  metric.Int64Counter
	requests  metric.Int64Counter
	terminal  metric.Int64Counter
	successes metric.Int64Counter
}

func newEngineMetrics(mp metric.MeterProvider) (*engineMetrics, error) {
	meter := mp.Meter(instrumentationName)

	failures, err := meter.Int64Counter(metricFailures,
		metric.WithDescription("asset load failures resolved to a mapped domain"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("xassetretry: create counter %s failed: %w", metricFailures, err)
	}
	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("retries requested with a substituted domain"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("xassetretry: create counter %s failed: %w", metricRequests, err)
	}
	terminal, err := meter.Int64Counter(metricTerminal,
		metric.WithDescription("failures that were not retried"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("xassetretry: create counter %s failed: %w", metricTerminal, err)
	}
	successes, err := meter.Int64Counter(metricSuccesses,
		metric.WithDescription("assets that loaded after at least one retry"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("xassetretry: create counter %s failed: %w", metricSuccesses, err)
	}

	return &engineMetrics{
		failures:  failures,
		requests:  requests,
		terminal:  terminal,
		successes: successes,
	}, nil
}

func (m *engineMetrics) recordFailure(ctx context.Context, domain string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrDomain, domain)))
}

func (m *engineMetrics) recordOutcome(ctx context.Context, o Outcome) {
	attrs := metric.WithAttributes(
		attribute.String(attrDomain, o.Domain),
		attribute.String(attrReason, o.Reason.String()),
	)
	if o.Action == ActionRetry {
		m.requests.Add(ctx, 1, attrs)
		return
	}
	m.terminal.Add(ctx, 1, attrs)
}

func (m *engineMetrics) recordSuccess(ctx context.Context, domain string) {
	m.successes.Add(ctx, 1, metric.WithAttributes(attribute.String(attrDomain, domain)))
}
