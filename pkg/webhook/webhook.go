// Package webhook posts search reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

const (
	userAgent       = "revlog-webhook"
	maxResponseBody = 1 << 20
)

// Event names sent in the payload.
const (
	EventQueriesMissing = "queries_missing"
	EventSearchComplete = "search_complete"
)

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Event  string         `json:"event"`
	Report *output.Report `json:"report"`
}

// NewPayload wraps report with the event describing it.
func NewPayload(report *output.Report) *Payload {
	event := EventSearchComplete
	if report.HasMissing() {
		event = EventQueriesMissing
	}
	return &Payload{Event: event, Report: report}
}

// Client sends search reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a new webhook client. A nil logger discards logs.
func NewClient(logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a report to a webhook endpoint.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := c.send(ctx, report, opts)
	resp.Duration = time.Since(start)
	return resp
}

func (c *Client) send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	payload, err := json.Marshal(NewPayload(report))
	if err != nil {
		return &Response{Error: fmt.Errorf("marshaling report: %w", err)}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return &Response{Error: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return &Response{Error: fmt.Errorf("request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return &Response{StatusCode: httpResp.StatusCode, Error: fmt.Errorf("reading response: %w", err)}
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Body: string(body)}
	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp
}

// ShouldFire reports whether a webhook with trigger fires for report.
// An empty trigger behaves like on_missing.
func ShouldFire(trigger config.WebhookTrigger, report *output.Report) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return report.HasMissing()
	}
}

// Delivery records the outcome of one webhook.
type Delivery struct {
	Name     string
	Fired    bool
	Response *Response
}

// Notify sends report to every webhook whose trigger fires. Failures are
// logged and returned but never stop the remaining deliveries.
func (c *Client) Notify(ctx context.Context, hooks []config.WebhookConfig, report *output.Report) []Delivery {
	deliveries := make([]Delivery, 0, len(hooks))

	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		d := Delivery{Name: name}
		if !ShouldFire(wh.Trigger, report) {
			level.Debug(c.logger).Log("msg", "webhook skipped", "webhook", name, "trigger", wh.Trigger)
			deliveries = append(deliveries, d)
			continue
		}

		d.Fired = true
		d.Response = c.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		if d.Response.Success() {
			level.Info(c.logger).Log("msg", "webhook sent", "webhook", name, "status", d.Response.StatusCode, "duration", d.Response.Duration)
		} else {
			level.Warn(c.logger).Log("msg", "webhook failed", "webhook", name, "err", d.Response.Error)
		}
		deliveries = append(deliveries, d)
	}

	return deliveries
}
