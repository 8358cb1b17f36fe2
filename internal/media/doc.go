// Package media defines the artifacts that flow through the streamer
// pipeline: synthesized audio, face expression frames, body motion frames,
// and stop requests.
//
// Artifacts are produced by generator backends and treated as immutable once
// created. A single AudioData value is routinely shared by the face and motion
// stages, so callers must never mutate an artifact after handing it to a stage.
package media
