package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/config"
)

const userAgent = "Locaudit-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	AuditCompleted(ctx context.Context, a *audit.Audit) error
	AuditBlocked(ctx context.Context, a *audit.Audit) error
	AuditFailed(ctx context.Context, a *audit.Audit, stageName string) error
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		blocked:   cfg.Notifications.Blocked,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	blocked   bool
	errors    bool
}

func (n *ntfyService) AuditCompleted(ctx context.Context, a *audit.Audit) error {
	if !n.completed {
		return nil
	}
	message := fmt.Sprintf("Audit #%d complete: %s", a.ID, auditLabel(a))
	if a.OverallScore != nil {
		message = fmt.Sprintf("%s\nOverall score: %d/100", message, *a.OverallScore)
	}
	if a.Degraded {
		message += "\nEvaluated with partial evidence"
	}
	data := payload{
		title:   "Locaudit - Audit Complete",
		message: message,
		tags:    []string{"locaudit", "audit", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) AuditBlocked(ctx context.Context, a *audit.Audit) error {
	if !n.blocked {
		return nil
	}
	reason := strings.TrimSpace(a.BlockedReason)
	if reason == "" {
		reason = "page acquisition was blocked"
	}
	data := payload{
		title:    "Locaudit - Audit Blocked",
		message:  fmt.Sprintf("Audit #%d blocked: %s\n%s\nRetry or proceed with partial evidence", a.ID, auditLabel(a), reason),
		tags:     []string{"locaudit", "audit", "blocked"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) AuditFailed(ctx context.Context, a *audit.Audit, stageName string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "Audit #%d failed", a.ID)
	if stageName = strings.TrimSpace(stageName); stageName != "" {
		builder.WriteString(" during ")
		builder.WriteString(stageName)
	}
	builder.WriteString(": ")
	if message := strings.TrimSpace(a.ErrorMessage); message != "" {
		builder.WriteString(message)
	} else {
		builder.WriteString("unknown error")
	}

	data := payload{
		title:    "Locaudit - Error",
		message:  builder.String(),
		tags:     []string{"locaudit", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Locaudit - Test",
		message:  "Notification system test",
		tags:     []string{"locaudit", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func auditLabel(a *audit.Audit) string {
	target := strings.TrimSpace(a.TargetURL)
	if target == "" {
		target = "uploaded images"
	}
	return fmt.Sprintf("%s (%s)", target, a.Mode)
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

func (noopService) AuditCompleted(context.Context, *audit.Audit) error      { return nil }
func (noopService) AuditBlocked(context.Context, *audit.Audit) error        { return nil }
func (noopService) AuditFailed(context.Context, *audit.Audit, string) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
