package xassetretry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) map[attribute.Distinct]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[attribute.Distinct]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				out[dp.Attributes.Equivalent()] = dp.Value
			}
		}
	}
	return out
}

func total(m map[attribute.Distinct]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

func TestEngine_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	e, err := New(
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithMaxRetryCount(1),
		WithMeterProvider(mp),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.OnFailure(ctx, "http://a.com/x.png") // retry
	require.NoError(t, err)
	_, err = e.OnFailure(ctx, "http://b.com/x.png") // exhausted
	require.NoError(t, err)
	_, err = e.OnFailure(ctx, "http://other.com/x.png") // out of scope
	require.NoError(t, err)
	e.OnSuccess(ctx, "http://b.com/y.png", true)

	assert.Equal(t, int64(2), total(collectSum(t, reader, metricFailures)))
	assert.Equal(t, int64(1), total(collectSum(t, reader, metricRequests)))
	assert.Equal(t, int64(1), total(collectSum(t, reader, metricTerminal)))
	assert.Equal(t, int64(1), total(collectSum(t, reader, metricSuccesses)))

	terminal := collectSum(t, reader, metricTerminal)
	set := attribute.NewSet(
		attribute.String(attrDomain, "b.com"),
		attribute.String(attrReason, ReasonExhausted.String()),
	)
	key := set.Equivalent()
	assert.Equal(t, int64(1), terminal[key])
}
