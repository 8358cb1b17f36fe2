// Command streamer runs the stage pipeline daemon and controls it over the
// daemon's HTTP API.
//
// "streamer run" starts the daemon in the foreground. Every other command
// talks to a running daemon at paths.api_bind (or --api). The journal
// commands fall back to opening the journal database directly when no
// daemon answers, so exception history stays readable after a crash.
package main
