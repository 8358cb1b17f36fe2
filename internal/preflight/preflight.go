package preflight

import (
	"context"

	"streamer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding stage or feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked; holds the journal and lock)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// Audio directory is read by motion even when speech does not persist
	if (cfg.Speech.Enabled && cfg.Speech.Persist) || cfg.Motion.Enabled {
		results = append(results, CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir))
	}
	if cfg.Face.Enabled && cfg.Face.Persist {
		results = append(results, CheckDirectoryAccess("Face directory", cfg.Paths.FaceDir))
	}
	if cfg.Motion.Enabled && cfg.Motion.Persist {
		results = append(results, CheckDirectoryAccess("Motion directory", cfg.Paths.MotionDir))
	}

	if cfg.Backend.Kind == config.BackendHTTP {
		results = append(results, CheckInference(ctx, cfg.Backend))
	}

	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
