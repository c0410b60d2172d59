package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxseedlab/kissandost/internal/webhook"
)

func TestSendNotification_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendNotification(context.Background(), webhook.NotificationPayload{Message: "hello"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendNotification_Success(t *testing.T) {
	var got webhook.NotificationPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if src := r.Header.Get(headerSource); src != "voice" {
			t.Errorf("unexpected source header: %q", src)
		}
		if kind := r.Header.Get(headerKind); kind != "error" {
			t.Errorf("unexpected kind header: %q", kind)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("unexpected user agent: %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	payload := webhook.NotificationPayload{
		Kind:       "error",
		Message:    "Network error.",
		Source:     "voice",
		OccurredAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	if err := sender.SendNotification(context.Background(), payload); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Kind != "error" || got.Message != "Network error." || got.Source != "voice" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if !got.OccurredAt.Equal(payload.OccurredAt) {
		t.Fatalf("unexpected occurred_at: %v", got.OccurredAt)
	}
}

func TestSendNotification_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendNotification(context.Background(), webhook.NotificationPayload{Message: "x"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
