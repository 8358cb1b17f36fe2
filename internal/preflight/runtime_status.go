package preflight

import (
	"context"

	"streamer/internal/config"
)

// CheckBackendFromConfig evaluates the generator backend from config and,
// for the http backend, connectivity.
func CheckBackendFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Inference backend"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if cfg.Backend.Kind != config.BackendHTTP {
		return Result{Name: name, Passed: true, Detail: "Synthetic (local)"}
	}
	return CheckInference(ctx, cfg.Backend)
}
