package core

import (
	"context"
	"maps"
)

const metricPrefix = "inspection."

// OperationCounterMetric names the per-operation counter, e.g.
// inspection.send_inspection.total.
func OperationCounterMetric(operation string) string {
	return metricPrefix + operation + ".total"
}

func OperationDurationMetric(operation string) string {
	return metricPrefix + operation + ".duration_ms"
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	return maps.Clone(tags)
}

var _ MetricsRecorder = NopMetricsRecorder{}
