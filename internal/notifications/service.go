package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reeler/internal/config"
)

const userAgent = "Reeler/0.1.0"

// Service defines the notification surface exposed to session components.
type Service interface {
	NotifyCaptureStarted(ctx context.Context, sourceURL string) error
	NotifySessionCompleted(ctx context.Context, sourceURL, outputPath string) error
	NotifySessionFailed(ctx context.Context, sourceURL, reason string) error
	TestNotification(ctx context.Context) error
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

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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
}

func (n *ntfyService) NotifyCaptureStarted(ctx context.Context, sourceURL string) error {
	data := payload{
		title:   "Reeler - Capture Started",
		message: fmt.Sprintf("Recording started: %s", strings.TrimSpace(sourceURL)),
		tags:    []string{"reeler", "capture", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionCompleted(ctx context.Context, sourceURL, outputPath string) error {
	message := fmt.Sprintf("Recording ready: %s", strings.TrimSpace(sourceURL))
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputPath)
	}
	data := payload{
		title:    "Reeler - Complete",
		message:  message,
		tags:     []string{"reeler", "session", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionFailed(ctx context.Context, sourceURL, reason string) error {
	var builder strings.Builder
	builder.WriteString("Session failed")
	if sourceURL = strings.TrimSpace(sourceURL); sourceURL != "" {
		builder.WriteString(" for ")
		builder.WriteString(sourceURL)
	}
	builder.WriteString(": ")
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString(reason)
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Reeler - Error",
		message:  builder.String(),
		tags:     []string{"reeler", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reeler - Test",
		message:  "Notification system test",
		tags:     []string{"reeler", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
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

func (noopService) NotifyCaptureStarted(context.Context, string) error           { return nil }
func (noopService) NotifySessionCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifySessionFailed(context.Context, string, string) error    { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
