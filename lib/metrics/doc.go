// Package metrics provides the optional instrumentation of fKV stores.
//
// The configuration is read once from the environment with LoadConfig:
//
//   - KVS_METRICS_ENABLED: "true", "set" or "enabled" (any case) turn metrics on,
//     anything else (or unset) leaves them off
//   - KVS_METRICS_OUTPUT_PATH: the file Report writes to (default kvs_metrics.json)
//   - KVS_METRICS_FORMAT: json (default, go-metrics registry dump) or prometheus
//     (VictoriaMetrics text exposition format)
//
// The resulting Config is handed to the store at construction time. When
// metrics are disabled New returns a nil *Metrics whose methods do nothing,
// so call sites never need to check.
package metrics
