package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"streamer/internal/config"
	"streamer/internal/services"
	"streamer/internal/services/inference"
)

// CheckInference verifies that the inference server answers its health
// endpoint. It uses a 10-second timeout and a single attempt (no retries).
func CheckInference(ctx context.Context, cfg config.Backend) Result {
	const name = "Inference backend"

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := inference.NewClient(inference.Config{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, inference.WithRetryMaxAttempts(1))

	if err := client.Health(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeInferenceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeInferenceError produces a human-readable summary for health check failures.
func summarizeInferenceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return "health check timed out (backend unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (backend unreachable)"
	}
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "auth failed (check backend.api_key)"
	case errors.Is(err, services.ErrNotFound):
		return "health endpoint not found (check backend.base_url)"
	}
	return err.Error()
}
