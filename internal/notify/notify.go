// Package notify sends a failure notification email when a task's
// run ends unsuccessfully, adapted from teacher's internal/email
// (originally a magic-link auth sender) to cronlet's domain.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/ErlanBelekov/cronlet/internal/history"
)

// Sender delivers a task-failure notification.
type Sender interface {
	NotifyFailure(ctx context.Context, to string, entry history.Entry) error
}

// LogSender logs the notification instead of sending it — used in
// ENV=local and whenever no Resend API key is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "notify")}
}

// NotifyFailure logs the failure instead of emailing it.
func (s *LogSender) NotifyFailure(_ context.Context, to string, entry history.Entry) error {
	s.logger.Info("task failure notification (local dev)",
		"to", to, "task", entry.TaskName, "result", entry.Result.String())
	return nil
}

// ResendSender sends failure notifications via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a Sender backed by the Resend API.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// NotifyFailure emails a summary of the failed run to "to".
func (s *ResendSender) NotifyFailure(ctx context.Context, to string, entry history.Entry) error {
	subject := fmt.Sprintf("cronlet: task %q failed", entry.TaskName)
	body := fmt.Sprintf(
		"<p>Task <b>%s</b> finished with result: %s</p><p>Started: %s<br>Ended: %s</p>",
		entry.TaskName, entry.Result.String(), entry.StartedAt, entry.EndedAt,
	)

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send failure notification: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local or an empty apiKey,
// ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" || apiKey == "" {
		return NewLogSender(logger)
	}
	return NewResendSender(apiKey, from)
}
