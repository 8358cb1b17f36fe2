package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamer/internal/config"
)

const userAgent = "Streamer-Go/0.1.0"

// Event names a notification-worthy occurrence.
type Event string

const (
	EventException     Event = "exception"
	EventAcknowledged  Event = "acknowledged"
	EventDaemonStarted Event = "daemon_started"
	EventDaemonStopped Event = "daemon_stopped"
	EventTest          Event = "test"
)

// Payload carries event fields. Unknown keys are ignored.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		exceptions: cfg.Notifications.Exceptions,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	exceptions bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventException:
		if !n.exceptions {
			return message{}, false
		}
		stageName := payload.text("stage", "pipeline")
		body := fmt.Sprintf("%s: %s", stageName, payload.text("type", "UNKNOWN"))
		if detail := payload.text("message", ""); detail != "" {
			body += "\n" + detail
		}
		if item := payload.text("item", ""); item != "" {
			body += "\nItem: " + item
		}
		return message{
			title:    "Streamer - Stage Exception",
			body:     body,
			tags:     []string{"streamer", "exception", stageName},
			priority: "high",
		}, true
	case EventAcknowledged:
		if !n.exceptions {
			return message{}, false
		}
		stageName := payload.text("stage", "pipeline")
		return message{
			title: "Streamer - Stage Resumed",
			body:  fmt.Sprintf("%s resumed after %s was acknowledged", stageName, payload.text("type", "exception")),
			tags:  []string{"streamer", "acknowledged", stageName},
		}, true
	case EventDaemonStarted:
		return message{
			title: "Streamer - Started",
			body:  fmt.Sprintf("Pipeline running with stages: %s", payload.text("stages", "none")),
			tags:  []string{"streamer", "daemon", "started"},
		}, true
	case EventDaemonStopped:
		return message{
			title: "Streamer - Stopped",
			body:  "Pipeline stopped",
			tags:  []string{"streamer", "daemon", "stopped"},
		}, true
	case EventTest:
		return message{
			title:    "Streamer - Test",
			body:     "Notification system test",
			tags:     []string{"streamer", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" {
		return fallback
	}
	return s
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
