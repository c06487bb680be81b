// Package observe provides logging, metrics and tracing for token and policy
// operations.
//
// It is a pure instrumentation library: no transport and no I/O beyond
// exporter setup. The HTTP layer wires an Observer's Middleware around token
// issuance, token resolution and authorization decisions.
package observe
