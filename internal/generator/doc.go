// Package generator defines the model contracts the pipeline stages call.
//
// Each contract pairs a Generate operation with artifact persistence
// (Save/Load/Delete). Generate returns a fully populated artifact or an
// error, never both. Implementations live under internal/services: the
// synthetic package renders deterministic media offline, the inference
// package calls a remote model server. Persistence is usually delegated to
// an artifact.Store embedded in the implementation.
package generator
