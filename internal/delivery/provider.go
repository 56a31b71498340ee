// Package delivery routes a built notification to its recipients: through
// the external push provider when one is configured and healthy, otherwise
// through per-recipient preference evaluation and direct rows in the
// notifications table.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docket/internal/config"
	"docket/internal/constants"
	"docket/internal/logger"
	"docket/pkg/circuitbreaker"
	"docket/pkg/metrics"
	"docket/pkg/models"
)

// Provider is the push provider contract. Enabled reports whether a
// credential is configured; a disabled provider is never called.
type Provider interface {
	Enabled() bool
	Trigger(ctx context.Context, recipients []string, payload models.NotificationPayload) error
}

// HTTPProvider calls the provider's workflow trigger endpoint. All calls
// run behind a circuit breaker so a dead provider fails fast into the
// direct-write path instead of eating the timeout on every event.
type HTTPProvider struct {
	baseURL     string
	workflowKey string
	apiKey      string
	client      *http.Client
	cb          *circuitbreaker.Wrapper
	logger      logger.Logger
}

func NewHTTPProvider(cfg config.ProviderConfig, cbCfg circuitbreaker.Config, log logger.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultProviderTimeout
	}

	return &HTTPProvider{
		baseURL:     cfg.BaseURL,
		workflowKey: cfg.WorkflowKey,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: timeout},
		cb:          circuitbreaker.NewWrapper(cbCfg),
		logger:      log,
	}
}

func (p *HTTPProvider) Enabled() bool {
	return p.apiKey != ""
}

type triggerRecipient struct {
	ID string `json:"id"`
}

type triggerRequest struct {
	Recipients []triggerRecipient     `json:"recipients"`
	Data       map[string]interface{} `json:"data"`
}

func (p *HTTPProvider) Trigger(ctx context.Context, recipients []string, payload models.NotificationPayload) error {
	start := time.Now()
	_, err := p.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, p.trigger(ctx, recipients, payload)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(status).Inc()
	metrics.ObserveProviderDuration(time.Since(start), status)

	return err
}

func (p *HTTPProvider) trigger(ctx context.Context, recipients []string, payload models.NotificationPayload) error {
	data := map[string]interface{}{
		"subject":  payload.Subject,
		"body":     payload.Body,
		"type":     payload.Type,
		"category": string(payload.Category),
		"priority": string(payload.Priority),
	}
	if payload.ActionURL != "" {
		data["actionUrl"] = payload.ActionURL
	}
	if payload.ReferenceID != "" {
		data["referenceId"] = payload.ReferenceID
	}
	for k, v := range payload.Metadata {
		data[k] = v
	}

	reqBody := triggerRequest{
		Recipients: make([]triggerRecipient, 0, len(recipients)),
		Data:       data,
	}
	for _, id := range recipients {
		reqBody.Recipients = append(reqBody.Recipients, triggerRecipient{ID: id})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode trigger request: %w", err)
	}

	url := fmt.Sprintf("%s/workflows/%s/trigger", p.baseURL, p.workflowKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(snippet))
	}

	return nil
}
