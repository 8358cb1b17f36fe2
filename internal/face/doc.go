// Package face implements the stage that turns synthesized speech into
// per-frame facial blend shapes and emotions.
//
// Audio is checked against Limits at admission and rejected clips never
// reach the input queue. Generation runs on a single background worker and
// is bounded by a deadline; a call that overruns is abandoned, keeps the
// worker busy until it returns, and its late result is discarded.
package face
