// Package notifiers delivers scan events outside the process.
package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/daniacca/starseed/internal/scan"
)

const webhookTimeout = 5 * time.Second

// WebhookNotifier POSTs every scan event as JSON to a URL. The event type
// is repeated in the X-Starseed-Event header so receivers can route
// without decoding the body.
type WebhookNotifier struct {
	id     string
	url    string
	client *http.Client
	header http.Header
}

func NewWebhookNotifier(id, url string, headers map[string]string) *WebhookNotifier {
	h := make(http.Header, len(headers)+2)
	for k, v := range headers {
		h.Set(k, v)
	}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", "starseed-webhook")
	return &WebhookNotifier{
		id:     id,
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
		header: h,
	}
}

func (wn *WebhookNotifier) ID() string   { return wn.id }
func (wn *WebhookNotifier) Type() string { return "webhook" }
func (wn *WebhookNotifier) URL() string  { return wn.url }

// Notify sends the event. Any non-2xx status is an error so the
// dispatcher retries it.
func (wn *WebhookNotifier) Notify(ctx context.Context, event scan.Event) error {
	data, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = wn.header.Clone()
	req.Header.Set("X-Starseed-Event", string(event.Type))

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", wn.id, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", wn.id, resp.StatusCode)
	}
	return nil
}

func (wn *WebhookNotifier) Close() error {
	return nil
}
