// Package daemon coordinates the long-running streamer process.
//
// It wires configuration, the stage pipeline, the exception journal, metrics,
// and notifications into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon serves the HTTP control API used by
// the CLI and announces start and stop through the notification service.
//
// Keep orchestration logic here: stage behaviour lives in the stage packages
// and routing lives in the pipeline, while the daemon focuses on startup,
// shutdown, and the transport surface.
package daemon
