package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"golang.org/x/time/rate"
)

const SignatureHeader = "X-Signature"

// WebhookClient posts terminal job snapshots to a configured URL. Implements domain.JobNotifier.
type WebhookClient struct {
	client      *http.Client
	url         string
	secret      string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

func NewWebhookClient(url, secret string, timeout time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *WebhookClient {
	return &WebhookClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		url:         url,
		secret:      secret,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(20), 5),
	}
}

func (c *WebhookClient) Notify(ctx context.Context, snapshot domain.JobSnapshot) error {
	if c.url == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordWebhookCall("rate_limit", time.Since(start))
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal job snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.secret, payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordWebhookCall("network_error", time.Since(start))
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordWebhookCall(fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.metrics.RecordWebhookCall("success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      c.url,
		"duration": duration,
		"status":   snapshot.Status,
	}).Info("Delivered completion webhook")

	return nil
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
