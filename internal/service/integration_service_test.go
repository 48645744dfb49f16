package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"askaway/internal/integrations"
	"askaway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationService_SlackNotify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var gotChannel string
	slack := &slackStub{configured: true, sendFn: func(_ context.Context, channel, _ string) bool {
		gotChannel = channel
		return true
	}}
	svc := NewIntegrationService(slack, &cloudStub{}, nil, noopStatsRepo(), noopQuestionRepo(), Inline)

	res, err := svc.SlackNotify(ctx, "#general", "hello", "alice")
	require.NoError(t, err)
	assert.Equal(t, SlackNotifyResult{Success: true, Channel: "#general", Message: "hello", SentBy: "alice"}, *res)
	assert.Equal(t, "#general", gotChannel)

	res, err = NewIntegrationService(&slackStub{}, &cloudStub{}, nil, noopStatsRepo(), noopQuestionRepo(), Inline).
		SlackNotify(ctx, "#general", "hello", "alice")
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = svc.SlackNotify(ctx, "", "hello", "alice")
	assertValidationError(t, err)
}

func TestIntegrationService_DailySummary(t *testing.T) {
	t.Parallel()
	stats := noopStatsRepo()
	var window models.TimeWindow
	stats.activityFn = func(_ context.Context, w models.TimeWindow) (*models.DailyActivity, error) {
		window = w
		return &models.DailyActivity{Date: "2024-03-09", NewQuestions: 2, NewAnswers: 5}, nil
	}
	slack := &slackStub{configured: true}
	svc := NewIntegrationService(slack, &cloudStub{}, nil, stats, noopQuestionRepo(), Inline)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC) }

	activity, err := svc.ScheduleDailySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), activity.NewQuestions)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), window.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), window.End)
	require.Len(t, slack.summaries, 1)
	assert.Same(t, activity, slack.summaries[0])
}

func TestIntegrationService_Backup(t *testing.T) {
	t.Parallel()
	stats := noopStatsRepo()
	stats.platformFn = func(context.Context) (*models.PlatformStats, error) {
		return &models.PlatformStats{TotalUsers: 3, TotalQuestions: 2}, nil
	}
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	questions := noopQuestionRepo()
	questions.listFn = func(_ context.Context, skip, limit int) ([]models.Question, error) {
		assert.Equal(t, 0, skip)
		assert.Equal(t, 100, limit)
		return []models.Question{{ID: "q1", Title: "First", CreatedAt: created, Views: 7}}, nil
	}
	cloud := &cloudStub{s3: true}
	svc := NewIntegrationService(&slackStub{}, cloud, nil, stats, questions, Inline)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 8, 30, 15, 0, time.UTC) }

	res, err := svc.ScheduleBackup(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Backup scheduled", res.Message)
	assert.Equal(t, "platform_backup_20240310_083015.json", res.BackupKey)

	stored, ok := cloud.backups[res.BackupKey].(BackupPayload)
	require.True(t, ok)
	assert.Equal(t, "alice", stored.BackupBy)
	require.Len(t, stored.RecentQuestions, 1)
	assert.Equal(t, BackupQuestion{ID: "q1", Title: "First", CreatedAt: created, ViewsCount: 7}, stored.RecentQuestions[0])

	data, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.Equal(t, len(data), res.DataSize)
}

func TestIntegrationService_Metrics(t *testing.T) {
	t.Parallel()

	t.Run("averages guard empty platforms", func(t *testing.T) {
		t.Parallel()
		metrics := PlatformMetrics(&models.PlatformStats{TotalAnswers: 3})
		require.Len(t, metrics, 6)
		assert.Equal(t, integrations.Metric{Name: "AvgAnswersPerQuestion", Value: 3}, metrics[5])
	})

	t.Run("scheduled send", func(t *testing.T) {
		t.Parallel()
		stats := noopStatsRepo()
		stats.platformFn = func(context.Context) (*models.PlatformStats, error) {
			return &models.PlatformStats{TotalUsers: 3, TotalQuestions: 4, TotalAnswers: 6, TotalStars: 1, TotalViews: 10}, nil
		}
		cloud := &cloudStub{cw: true}
		svc := NewIntegrationService(&slackStub{}, cloud, nil, stats, noopQuestionRepo(), Inline)

		res, err := svc.ScheduleMetrics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Metrics scheduled for sending to CloudWatch", res.Message)
		assert.InDelta(t, 1.5, res.Metrics["AvgAnswersPerQuestion"], 1e-9)
		assert.InDelta(t, 10.0, res.Metrics["TotalViews"], 1e-9)
		require.Len(t, cloud.metrics, 1)
		assert.Len(t, cloud.metrics[0], 6)
	})
}

func TestIntegrationService_Status(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		slack  bool
		s3, cw bool
		ai     bool
		want   IntegrationStatus
	}{
		{
			name: "nothing configured",
			want: IntegrationStatus{
				Slack: SlackStatus{Status: StatusNotConfigured},
				AWS:   AWSStatus{Status: StatusNotConfigured},
				AI:    AIStatus{Status: StatusNotConfigured},
			},
		},
		{
			name:  "partial aws",
			slack: true,
			s3:    true,
			want: IntegrationStatus{
				Slack: SlackStatus{Configured: true, Status: StatusActive},
				AWS:   AWSStatus{S3Configured: true, Status: StatusPartial},
				AI:    AIStatus{Status: StatusNotConfigured},
			},
		},
		{
			name:  "everything",
			slack: true,
			s3:    true,
			cw:    true,
			ai:    true,
			want: IntegrationStatus{
				Slack: SlackStatus{Configured: true, Status: StatusActive},
				AWS:   AWSStatus{S3Configured: true, CloudWatchConfigured: true, Status: StatusActive},
				AI:    AIStatus{Configured: true, Status: StatusActive},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ai := tt.ai
			svc := NewIntegrationService(&slackStub{configured: tt.slack}, &cloudStub{s3: tt.s3, cw: tt.cw},
				func() bool { return ai }, noopStatsRepo(), noopQuestionRepo(), Inline)
			assert.Equal(t, tt.want, svc.Status())
		})
	}
}
