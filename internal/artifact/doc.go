// Package artifact encodes and persists the media produced by the pipeline
// stages: speech as PCM16 WAV, face expressions as JSON, and motion as CSV
// or JSON. Store implements the generator persistence contracts so every
// backend shares one on-disk layout, named after the source audio clip.
package artifact
