// Package logging provides structured logging for the corriente bridge.
//
// This package wraps the standard library's log/slog with:
//   - Config-driven level, format, and output selection
//   - Default service/version fields on every record
//   - Component-scoped child loggers via With()
//
// All pipeline components log through this package; failures inside a
// publish cycle are logged and contained, never raised to the operator
// beyond the process log.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	serialLog := log.With("component", "serial")
//	serialLog.Warn("frame discarded", "error", err)
package logging
