// Package config loads, normalizes, and validates streamer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STREAMER_BACKEND_API_KEY. The Config type centralizes every knob the daemon
// and CLI need: artifact directories, stage admission limits, the generator
// backend, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
