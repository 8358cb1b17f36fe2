// Package services defines shared utilities consumed by the pipeline stages
// and the generator backends.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, correlation identifiers, and
//     conversation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so backend failures carry
//     a stable classification (validation, timeout, external) into journals
//     and metrics.
//
// Backend implementations live in subpackages: synthetic renders deterministic
// media offline, inference talks to a remote model server over HTTP.
package services
