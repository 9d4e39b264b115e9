package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blankon/cidash/pkg/httputil"
)

// Level is the severity of a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is a user visible notification.
type Toast struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// NewToast returns a toast with a fresh id.
func NewToast(level Level, title, message string, now time.Time) Toast {
	return Toast{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   title,
		Message: message,
		Time:    now,
	}
}

// WebhookPayload represents the notification payload sent to webhook
type WebhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ActionInfo describes the outcome of an admin action
type ActionInfo struct {
	Kind    string
	Tenant  string
	Project string
	Target  string
	User    string
	Err     error
}

// Notifier turns events into toasts and forwards admin action outcomes to
// a webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	retries    int
	now        func() time.Time
	pending    sync.WaitGroup
}

// webhookTimeout bounds one background webhook delivery, retries included.
const webhookTimeout = 30 * time.Second

// NewNotifier returns a notifier. An empty webhookURL disables the webhook.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		retries:    3,
		now:        time.Now,
	}
}

// Error returns an error toast for a failed operation.
func (n *Notifier) Error(title string, err error) Toast {
	log.Printf("[Notifier.Error] %s: %v", title, err)
	return NewToast(LevelError, title, err.Error(), n.now())
}

// SendWebhook sends a notification to the configured webhook URL
func (n *Notifier) SendWebhook(ctx context.Context, title, message string) error {
	if n.webhookURL == "" {
		log.Println("[SendWebhook] webhook URL not configured, skipping notification")
		return nil
	}

	payload := WebhookPayload{
		Title:   title,
		Message: message,
	}
	err := httputil.PostJSONWithRetry(ctx, n.client, n.webhookURL, payload, n.retries, time.Second,
		func(attempt, maxAttempts int, err error) {
			log.Printf("[SendWebhook] attempt %d/%d failed: %v", attempt, maxAttempts, err)
		})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	log.Printf("[SendWebhook] notification sent: %s", title)
	return nil
}

// NotifyAction builds the toast for an admin action and forwards it to
// the webhook in the background. Webhook failures are logged only.
func (n *Notifier) NotifyAction(ctx context.Context, info ActionInfo) Toast {
	status, level, emoji := "SUCCESS", LevelSuccess, "✅"
	if info.Err != nil {
		status, level, emoji = "FAILED", LevelError, "❌"
	}
	title := fmt.Sprintf("%s %s", info.Kind, status)

	message := fmt.Sprintf("%s %s", shortProject(info.Project), info.Target)
	if info.Tenant != "" {
		message = fmt.Sprintf("[%s] %s", info.Tenant, message)
	}
	if info.User != "" {
		message += " by " + info.User
	}
	message = strings.TrimSpace(message)
	if info.Err != nil {
		message += ": " + info.Err.Error()
	}

	log.Printf("[NotifyAction] %s - %s", title, message)
	if n.webhookURL != "" {
		n.pending.Add(1)
		go func() {
			defer n.pending.Done()
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
			defer cancel()
			if err := n.SendWebhook(ctx, title, message+" "+emoji); err != nil {
				log.Printf("[NotifyAction] failed to send action notification: %v", err)
			}
		}()
	}
	return NewToast(level, title, message, n.now())
}

// Wait blocks until every webhook started by NotifyAction is done.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// shortProject drops the hostname of a canonical project name:
// review.example.org/org/project -> org/project
func shortProject(name string) string {
	parts := strings.Split(strings.TrimSuffix(name, "/"), "/")
	if len(parts) >= 3 && strings.Contains(parts[0], ".") {
		return strings.Join(parts[1:], "/")
	}
	return name
}
