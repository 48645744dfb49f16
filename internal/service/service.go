// Package service holds the business logic between the HTTP handlers and the
// repositories.
package service

import (
	"context"
	"time"

	"askaway/internal/integrations"
	"askaway/internal/models"
	"askaway/internal/observability"

	"github.com/slack-go/slack"
)

const backgroundTimeout = 30 * time.Second

// EventPublisher broadcasts live feed events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload any) error
}

// ContentNotifier announces new content outside the platform.
type ContentNotifier interface {
	Configured() bool
	NotifyNewQuestion(ctx context.Context, q *models.Question, author *models.User) bool
	NotifyNewAnswer(ctx context.Context, q *models.Question, a *models.Answer, author *models.User) bool
}

// SlackSender is the Slack surface used by the integration endpoints.
type SlackSender interface {
	Configured() bool
	Send(ctx context.Context, channel, text string, blocks ...slack.Block) bool
	SendDailySummary(ctx context.Context, activity *models.DailyActivity) bool
}

// CloudStore is the AWS surface used by the integration endpoints.
type CloudStore interface {
	S3Configured() bool
	CloudWatchConfigured() bool
	Backup(ctx context.Context, key string, payload any) bool
	SendMetrics(ctx context.Context, metrics []integrations.Metric) bool
}

// Spawner runs fn after the request returns.
type Spawner func(ctx context.Context, operation string, fn func(ctx context.Context) error)

// Background detaches fn from the request context and logs its outcome.
func Background(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
		defer cancel()

		observability.LogAsyncOperationStart(ctx, operation, nil)
		if err := fn(ctx); err != nil {
			observability.LogAsyncOperationError(ctx, operation, err, nil)
			return
		}
		observability.LogAsyncOperationEnd(ctx, operation, nil)
	}()
}

// Inline runs fn synchronously. Tests use it in place of Background.
func Inline(ctx context.Context, _ string, fn func(ctx context.Context) error) {
	_ = fn(ctx)
}

func spawnerOrDefault(s Spawner) Spawner {
	if s == nil {
		return Background
	}
	return s
}
