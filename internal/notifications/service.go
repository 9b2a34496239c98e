package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bibleref/internal/config"
)

const userAgent = "Bibleref-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventMigrationQueued    Event = "migration_queued"
	EventMigrationCompleted Event = "migration_completed"
	EventTest               Event = "test"
)

// Payload carries event specific values.
type Payload map[string]any

// Service defines the notification surface exposed to the migration manager
// and the host surfaces.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil {
		return nil
	}
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventMigrationQueued:
		return n.cfg.Queued
	case EventMigrationCompleted:
		return n.cfg.Completed
	default:
		return true
	}
}

func format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventMigrationQueued:
		message := fmt.Sprintf("🔖 Renaming %s → %s", data.str("oldId"), data.str("newId"))
		if pending := data.num("pending"); pending > 1 {
			message = fmt.Sprintf("%s (%d migrations waiting)", message, pending)
		}
		return payload{
			title:   "Bibleref - Migration Queued",
			message: message,
			tags:    []string{"bibleref", "migration", "queued"},
		}, true
	case EventMigrationCompleted:
		changed := data.num("changed")
		total := data.num("total")
		return payload{
			title: "Bibleref - Migration Complete",
			message: fmt.Sprintf("✅ %s → %s: %d of %d notes updated in %s",
				data.str("oldId"), data.str("newId"), changed, total, formatDuration(data.duration("duration"))),
			tags: []string{"bibleref", "migration", "completed"},
		}, true
	case EventTest:
		return payload{
			title:    "Bibleref - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"bibleref", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) num(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) duration(key string) time.Duration {
	if p == nil {
		return 0
	}
	if d, ok := p[key].(time.Duration); ok {
		return d
	}
	return 0
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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
