// Package logs reads the daemon's log files for the CLI.
//
// Tail returns the last N lines or everything after a byte offset, and can
// block waiting for new lines in follow mode. Lines can be narrowed to a single
// pipeline stage; both the json and console log formats are understood.
package logs
