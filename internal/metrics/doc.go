// Package metrics provides build metrics for mailbuilder.
//
// Components receive a Recorder through their options and default to NoopRecorder,
// so recording never needs nil checks. The dev server swaps in a PrometheusRecorder
// and exposes it on /metrics when enabled in configuration.
package metrics
