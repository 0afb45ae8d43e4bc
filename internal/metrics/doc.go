// ABOUTME: Package documentation for sentinel metrics
// ABOUTME: Shows how metrics attach to the registry and probe observers

// Package metrics provides Prometheus metrics for the holder registry and
// the lifecycle probe.
//
// SentinelMetrics implements both sentinel.Observer and
// sentinel.CycleObserver, so it can be attached directly:
//
//	m := metrics.NewSentinelMetrics()
//	reg := sentinel.NewRegistry(sentinel.WithObserver(m))
//	probe := sentinel.NewProbe(reg, sentinel.WithCycleObserver(m))
package metrics
