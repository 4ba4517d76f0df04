package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/circleci/restclass/o11y"
)

type MetricProducer interface {
	// MetricName The name for this group of metrics
	//(Name might be cleaner, but is much more likely to conflict in implementations)
	MetricName() string
	// Gauges are instantaneous name value pairs
	Gauges(context.Context) map[string]float64
}

func traceMetrics(ctx context.Context, producers []MetricProducer) {
	metrics := o11y.FromContext(ctx).MetricsProvider()
	for _, producer := range producers {
		traceMetric(metrics, producer, producer.Gauges(ctx))
	}
}

func traceMetric(provider o11y.MetricsProvider, producer MetricProducer, gauges map[string]float64) {
	producerName := strings.ReplaceAll(producer.MetricName(), "-", "_")
	for f, v := range gauges {
		scopedField := fmt.Sprintf("gauge.%s.%s", producerName, f)
		_ = provider.Gauge(scopedField, v, []string{}, 1)
	}
}

// metricsReporter returns a function that is expected to be used in a call to errgroup.Go,
// it publishes the gauges from the producers every interval until ctx is done.
func metricsReporter(ctx context.Context, interval time.Duration, mps []MetricProducer) func() error {
	return func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			traceMetrics(ctx, mps)
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}
