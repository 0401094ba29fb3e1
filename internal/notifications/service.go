package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stocksmith/internal/config"
)

const userAgent = "Stocksmith/0.1.0"

// Event enumerates the run milestones that can be published.
type Event string

const (
	// EventRunStarted fires when a processing run begins dispatching batches.
	EventRunStarted Event = "run_started"
	// EventRunCompleted fires when every work item has reached a terminal status.
	EventRunCompleted Event = "run_completed"
	// EventBatchError fires when a dispatched batch fails as a whole.
	EventBatchError Event = "batch_error"
	// EventTest is sent by the test-notify command to verify delivery.
	EventTest Event = "test"
)

// Payload carries event-specific values used to format the message.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Publish formats and delivers the event. Unknown events are dropped
// silently so adding new milestones never breaks older notifier setups.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	data, ok := formatEvent(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func formatEvent(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunStarted:
		count := payloadInt(payload, "count")
		return message{
			title: "Stocksmith - Run Started",
			body:  fmt.Sprintf("Generating metadata for %d images", count),
			tags:  []string{"stocksmith", "run", "started"},
		}, true
	case EventRunCompleted:
		processed := payloadInt(payload, "processed")
		failed := payloadInt(payload, "failed")
		duration := payloadDuration(payload, "duration").Round(time.Second)
		if duration < 0 {
			duration = 0
		}
		durationText := duration.String()
		if duration == 0 {
			durationText = "0s"
		}
		if failed == 0 {
			return message{
				title: "Stocksmith - Run Complete",
				body:  fmt.Sprintf("Metadata ready for %d images in %s", processed, durationText),
				tags:  []string{"stocksmith", "run", "completed"},
			}, true
		}
		return message{
			title: "Stocksmith - Run Complete (with errors)",
			body:  fmt.Sprintf("Metadata ready: %d succeeded, %d failed in %s", processed, failed, durationText),
			tags:  []string{"stocksmith", "run", "completed"},
		}, true
	case EventBatchError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payloadErrorText(payload, "error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Stocksmith - Batch Error",
			body:     builder.String(),
			tags:     []string{"stocksmith", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Stocksmith - Test",
			body:     "Notification system test",
			tags:     []string{"stocksmith", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func payloadInt(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func payloadDuration(payload Payload, key string) time.Duration {
	if payload == nil {
		return 0
	}
	if value, ok := payload[key].(time.Duration); ok {
		return value
	}
	return 0
}

func payloadErrorText(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch value := payload[key].(type) {
	case error:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(value.Error())
	case string:
		return strings.TrimSpace(value)
	default:
		return ""
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
