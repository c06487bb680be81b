// Package health reports whether the gateway can serve decisions.
//
// A Checker reports a Result with a Status of Healthy, Degraded, or
// Unhealthy. An Aggregator runs a set of named checkers concurrently under a
// shared deadline and folds their results into one overall status.
//
// Two checkers cover the gateway's own state:
//
//	agg := health.NewAggregator()
//	agg.Register("policy", health.PolicyChecker(store))
//	agg.Register("token", health.TokenChecker(tokens))
//
// The HTTP handlers expose the aggregate for probes:
//
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness) and /health (JSON
// detail).
package health
