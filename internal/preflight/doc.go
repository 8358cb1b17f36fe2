// Package preflight provides readiness checks for the filesystem paths and
// external services the streamer depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failing check so a
//     missing directory or unreachable backend is visible before the first tick.
//   - The CLI "streamer status" command renders the same results next to
//     the stage table.
//
// Each check is gated by its config toggle -- disabled stages are skipped.
package preflight
