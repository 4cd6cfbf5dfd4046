// Package logging provides a minimal logging interface and adapters for AgentCrew.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the supervisor, engine and agent units use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - CrewLogger with contextual run/user helpers and domain log methods
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	sup := agentcrew.New(catalog, func(o *agentcrew.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
