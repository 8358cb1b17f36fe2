// Package pipeline composes the speech, face and motion stages into the
// running system.
//
// The Backbone only ticks stages; moving data between them is the caller's
// job, and Pipeline is that caller. After every backbone tick it drains the
// speech output into the face and motion inputs (both receive the same
// clip), records every artifact in a bounded recent list and the journal,
// and surfaces each new head exception exactly once: logged, journaled,
// published to the notifier and, when workflow.auto_acknowledge is set,
// acknowledged so the stage resumes.
//
// Start runs the driver loop in a goroutine; Tick may also be called
// directly, which is how tests step the system deterministically.
package pipeline
