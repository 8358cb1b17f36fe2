// Package stage provides the state machine shared by every pipeline stage.
//
// A stage owns FIFO queues for inputs, stop requests, outputs, and exceptions
// and is advanced one step at a time by Tick. Each tick runs exactly one
// handler, selected by the stage's current Status, and every handler
// re-evaluates the same precedence before doing any work:
//
//	Error (exception pending) > Stop (stop requested) > Execute (input available) > Wait
//
// A pending exception latches the stage in Error until the caller
// acknowledges it, so a stage never executes while a previous failure is
// unacknowledged. Base carries the shared bookkeeping; the speech, face, and
// motion packages embed it and supply their own handlers through Dispatch.
package stage
