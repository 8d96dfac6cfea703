package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadpilot/leadpilot/pkg/logging"
)

const webhookTimeout = 10 * time.Second

// WebhookForwarder posts created leads to an external CRM endpoint.
// Delivery is lossy: failures are logged, never retried, and never
// surfaced to the conversation.
type WebhookForwarder struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// WebhookForwarderConfig configures the CRM forwarder.
type WebhookForwarderConfig struct {
	// URL is the CRM endpoint; empty disables forwarding.
	URL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewWebhookForwarder creates a CRM webhook forwarder. Returns nil when
// no URL is configured; a nil forwarder is safe to call.
func NewWebhookForwarder(cfg WebhookForwarderConfig) *WebhookForwarder {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: webhookTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookForwarder{
		url:        cfg.URL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Forward delivers the lead to the CRM endpoint.
func (f *WebhookForwarder) Forward(ctx context.Context, lead *Lead) error {
	if f == nil {
		return nil
	}

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leads: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("leads: create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leads: webhook request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error("crm webhook rejected lead",
			"status", resp.StatusCode,
			"body", string(respBody),
			"lead_id", lead.ID,
		)
		return fmt.Errorf("leads: webhook returned %d", resp.StatusCode)
	}

	f.logger.Info("lead forwarded to crm", "lead_id", lead.ID, "status", resp.StatusCode)
	return nil
}
