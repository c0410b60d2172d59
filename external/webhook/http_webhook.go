package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/foxseedlab/kissandost/internal/webhook"
)

const (
	webhookRequestTimeout = 10 * time.Second

	headerSource = "X-Kissan-Notification-Source"
	headerKind   = "X-Kissan-Notification-Kind"
	userAgent    = "kissandost-notifier"
)

type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) webhook.Sender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookRequestTimeout},
	}
}

func (s *HTTPSender) SendNotification(ctx context.Context, payload webhook.NotificationPayload) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", payload.Source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	// receivers route on these without decoding the body
	req.Header.Set(headerSource, payload.Source)
	req.Header.Set(headerKind, payload.Kind)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s notification: %w", payload.Source, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook rejected %s notification with status %d", payload.Source, resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
