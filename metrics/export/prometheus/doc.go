// Package prometheus exposes sessionauth engine metrics as a
// prometheus.Collector.
//
// [NewCollector] accepts any engine (or other [MetricsSource]) and reads its
// snapshot on every scrape. Counter names are sessionauth_*_total; the only
// histogram is sessionauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry; callers pick the registry.
//   - Mutate engine state.
package prometheus
