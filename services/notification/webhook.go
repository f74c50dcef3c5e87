package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trimly/models"
)

// WebhookClient POSTs booking events as JSON to a downstream endpoint.
type WebhookClient struct {
	DefaultURL string
	client     *http.Client
}

// NewWebhookClient builds a client with the given default endpoint and
// request timeout. A zero timeout falls back to 5 seconds.
func NewWebhookClient(defaultURL string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookClient{
		DefaultURL: defaultURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Send delivers one event. Non-2xx responses are errors; the caller decides
// that they are non-fatal.
func (w *WebhookClient) Send(ctx context.Context, url string, event models.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
