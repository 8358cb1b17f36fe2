package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StatusError is returned when the daemon replies with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.Code)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
}

// Client talks to the daemon HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client for the daemon listening at baseURL.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURLFromBind converts a listen address into a URL a local client can
// dial. Wildcard hosts map to the loopback address.
func BaseURLFromBind(bind string) string {
	bind = strings.TrimSpace(bind)
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Status fetches daemon and pipeline status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Speak submits text to the speech stage.
func (c *Client) Speak(ctx context.Context, text string) (*SpeakResponse, error) {
	var resp SpeakResponse
	if err := c.do(ctx, http.MethodPost, "/api/speak", nil, SpeakRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop broadcasts a conversation stop.
func (c *Client) Stop(ctx context.Context, req StopRequest) (*StopResponse, error) {
	var resp StopResponse
	if err := c.do(ctx, http.MethodPost, "/api/stop", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Exceptions lists exceptions from the given source.
func (c *Client) Exceptions(ctx context.Context, source, stage string, limit int) (*ExceptionListResponse, error) {
	var resp ExceptionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/exceptions", listQuery(source, stage, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Acknowledge clears the head exception of a stage.
func (c *Client) Acknowledge(ctx context.Context, stage string) (*AckResponse, error) {
	var resp AckResponse
	if err := c.do(ctx, http.MethodPost, "/api/exceptions/ack", nil, AckRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Artifacts lists artifacts from the given source.
func (c *Client) Artifacts(ctx context.Context, source, stage string, limit int) (*ArtifactListResponse, error) {
	var resp ArtifactListResponse
	if err := c.do(ctx, http.MethodGet, "/api/artifacts", listQuery(source, stage, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearJournal removes every journal row.
func (c *Client) ClearJournal(ctx context.Context) (*ClearResponse, error) {
	var resp ClearResponse
	if err := c.do(ctx, http.MethodPost, "/api/journal/clear", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (*NotifyResponse, error) {
	var resp NotifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/notify/test", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func listQuery(source, stage string, limit int) url.Values {
	q := url.Values{}
	if source = strings.TrimSpace(source); source != "" {
		q.Set("source", source)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		q.Set("stage", stage)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}
