// Package webhook notifies an external endpoint when a snapshot finishes.
// Image payloads are never forwarded — only the per-step outcome summary.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tradewithedge/tickersnap/models"
)

// StepSummary is the per-step outcome carried by the webhook payload.
type StepSummary struct {
	Name    string `json:"name"`
	Variant string `json:"variant,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string        `json:"type"` // "snapshot.completed"
	Ticker    string        `json:"ticker"`
	Success   bool          `json:"success"`
	Steps     []StepSummary `json:"steps"`
	Timestamp int64         `json:"timestamp"`
}

// NewSnapshotEvent builds a snapshot.completed event from an aggregate result.
func NewSnapshotEvent(result *models.SnapshotResponse) *Event {
	steps := make([]StepSummary, 0, len(result.Screenshots))
	for _, s := range result.Screenshots {
		steps = append(steps, StepSummary{
			Name:    s.Name,
			Variant: s.Variant,
			Success: s.Success,
			Error:   s.Error,
		})
	}
	return &Event{
		Type:      "snapshot.completed",
		Ticker:    result.Ticker,
		Success:   result.Success,
		Steps:     steps,
		Timestamp: time.Now().Unix(),
	}
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Tickersnap-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Tickersnap-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func DeliverAsync(url, secret string, event *Event) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"ticker", event.Ticker,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"ticker", event.Ticker,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"ticker", event.Ticker,
		)
	}()
}
