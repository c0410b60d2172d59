package webhook

import (
	"context"
	"time"
)

type NotificationPayload struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Sender interface {
	SendNotification(ctx context.Context, payload NotificationPayload) error
}
