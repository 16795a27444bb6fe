package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// ActionClearLocalStorage tells a connected client to drop its cached
// session, pushed when the account behind it is deleted.
const ActionClearLocalStorage = "clearLocalStorage"

type publishFunc func(ctx context.Context, data []byte, attrs map[string]string) error

type event struct {
	Action       string `json:"action"`
	ConnectionID string `json:"connectionId"`
	Timestamp    string `json:"timestamp"`
}

// Notifier pushes realtime events to connected clients through Pub/Sub.
// Every failure is logged and swallowed; a missed push never fails the
// operation that triggered it.
type Notifier struct {
	publish publishFunc
	logg    *logger.Logger
}

// NewNotifier wraps the realtime topic publisher.
func NewNotifier(pub *pubsub.Publisher, logg *logger.Logger) (*Notifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("realtime publisher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	publish := func(ctx context.Context, data []byte, attrs map[string]string) error {
		result := pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
		_, err := result.Get(ctx)
		return err
	}
	return &Notifier{publish: publish, logg: logg}, nil
}

// Push sends an action to one connection. A nil or blank connection id means
// the client never registered a channel and the push is silently skipped.
func (n *Notifier) Push(ctx context.Context, connectionID *string, action string) {
	if n == nil {
		return
	}
	if connectionID == nil || strings.TrimSpace(*connectionID) == "" {
		return
	}

	payload, err := json.Marshal(event{
		Action:       action,
		ConnectionID: *connectionID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logg.Warn(ctx, "realtime event could not be encoded")
		return
	}

	attrs := map[string]string{"connection_id": *connectionID}
	if err := n.publish(ctx, payload, attrs); err != nil {
		n.logg.Warn(n.logg.WithFields(ctx, map[string]any{
			"connection_id": *connectionID,
			"action":        action,
		}), "realtime push failed")
	}
}
