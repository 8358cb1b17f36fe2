// Package notifications delivers pipeline events via ntfy.
//
// The service publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set. Callers publish an Event with a loose
// Payload map; the service formats title, tags and priority per event so
// stage code never touches HTTP.
package notifications
