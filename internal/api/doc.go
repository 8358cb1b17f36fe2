// Package api defines the wire-format types shared by the daemon's HTTP
// server and the CLI, plus a small client for that server.
//
// # Key Types
//
// StatusResponse: daemon running state, lock and journal paths, and the
// pipeline summary with one entry per enabled stage.
//
// ExceptionListResponse / ArtifactListResponse: exception and artifact
// listings, sourced either from live pipeline state or from the journal.
//
// Client: bearer-authenticated HTTP client used by the CLI. Non-2xx replies
// decode the {"error": "..."} body into a *StatusError.
//
// # Converters
//
// FromJournalException and FromJournalArtifact map journal rows onto the
// same views the pipeline reports live, so callers render both sources
// with one code path.
//
// # Design Notes
//
// JSON uses snake_case tags to match the pipeline types embedded in
// responses. Timestamps are RFC3339 as produced by encoding/json.
package api
