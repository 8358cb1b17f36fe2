// Package logging assembles structured slog loggers and formatting helpers used
// across streamer services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with stage names, conversation IDs, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Per-stage level overrides let operators raise verbosity for a single stage
// (for example face generation) without flooding the rest of the pipeline.
package logging
