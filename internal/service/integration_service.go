package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"askaway/internal/cache"
	"askaway/internal/integrations"
	"askaway/internal/models"
	"askaway/internal/repository"
)

// Integration status values.
const (
	StatusActive        = "active"
	StatusNotConfigured = "not_configured"
	StatusPartial       = "partial"
)

// backupQuestions caps the questions included in a backup.
const backupQuestions = 100

type IntegrationService struct {
	slack     SlackSender
	cloud     CloudStore
	aiEnabled func() bool
	stats     repository.StatsRepository
	questions repository.QuestionRepository
	spawn     Spawner
	now       func() time.Time
}

func NewIntegrationService(
	slack SlackSender,
	cloud CloudStore,
	aiEnabled func() bool,
	stats repository.StatsRepository,
	questions repository.QuestionRepository,
	spawn Spawner,
) *IntegrationService {
	if aiEnabled == nil {
		aiEnabled = func() bool { return false }
	}
	return &IntegrationService{
		slack:     slack,
		cloud:     cloud,
		aiEnabled: aiEnabled,
		stats:     stats,
		questions: questions,
		spawn:     spawnerOrDefault(spawn),
		now:       time.Now,
	}
}

type SlackNotifyResult struct {
	Success bool   `json:"success"`
	Channel string `json:"channel"`
	Message string `json:"message"`
	SentBy  string `json:"sent_by"`
}

// SlackNotify posts message to channel synchronously.
func (s *IntegrationService) SlackNotify(ctx context.Context, channel, message, sentBy string) (*SlackNotifyResult, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" || strings.TrimSpace(message) == "" {
		return nil, models.NewValidationError("channel and message are required")
	}
	return &SlackNotifyResult{
		Success: s.slack.Send(ctx, channel, message),
		Channel: channel,
		Message: message,
		SentBy:  sentBy,
	}, nil
}

// ScheduleDailySummary counts yesterday's activity and sends it to Slack
// in the background.
func (s *IntegrationService) ScheduleDailySummary(ctx context.Context) (*models.DailyActivity, error) {
	activity, err := s.stats.Activity(ctx, models.PreviousDay(s.now()))
	if err != nil {
		return nil, err
	}
	s.spawn(ctx, "slack_daily_summary", func(ctx context.Context) error {
		if !s.slack.SendDailySummary(ctx, activity) {
			return fmt.Errorf("daily summary not delivered")
		}
		return nil
	})
	return activity, nil
}

type BackupQuestion struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ViewsCount int       `json:"views_count"`
}

type BackupPayload struct {
	BackupTimestamp time.Time             `json:"backup_timestamp"`
	BackupBy        string                `json:"backup_by"`
	Stats           *models.PlatformStats `json:"stats"`
	RecentQuestions []BackupQuestion      `json:"recent_questions"`
}

type BackupResult struct {
	Message   string `json:"message"`
	BackupKey string `json:"backup_key"`
	DataSize  int    `json:"data_size"`
}

// BackupKey names a backup object taken at t.
func BackupKey(t time.Time) string {
	return "platform_backup_" + t.UTC().Format("20060102_150405") + ".json"
}

// ScheduleBackup snapshots platform stats and the newest questions and
// uploads them to S3 in the background.
func (s *IntegrationService) ScheduleBackup(ctx context.Context, username string) (*BackupResult, error) {
	stats, err := s.platformStats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.questions.List(ctx, 0, backupQuestions)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	payload := BackupPayload{
		BackupTimestamp: now,
		BackupBy:        username,
		Stats:           stats,
		RecentQuestions: make([]BackupQuestion, 0, len(recent)),
	}
	for _, q := range recent {
		payload.RecentQuestions = append(payload.RecentQuestions, BackupQuestion{
			ID:         q.ID,
			Title:      q.Title,
			CreatedAt:  q.CreatedAt,
			ViewsCount: q.Views,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := BackupKey(now)
	s.spawn(ctx, "s3_backup", func(ctx context.Context) error {
		if !s.cloud.Backup(ctx, key, payload) {
			return fmt.Errorf("backup %s not stored", key)
		}
		return nil
	})
	return &BackupResult{Message: "Backup scheduled", BackupKey: key, DataSize: len(data)}, nil
}

type MetricsResult struct {
	Message string             `json:"message"`
	Metrics map[string]float64 `json:"metrics"`
}

// PlatformMetrics derives the CloudWatch metrics from platform totals.
func PlatformMetrics(stats *models.PlatformStats) []integrations.Metric {
	questions := stats.TotalQuestions
	if questions < 1 {
		questions = 1
	}
	return []integrations.Metric{
		{Name: "TotalUsers", Value: float64(stats.TotalUsers)},
		{Name: "TotalQuestions", Value: float64(stats.TotalQuestions)},
		{Name: "TotalAnswers", Value: float64(stats.TotalAnswers)},
		{Name: "TotalStars", Value: float64(stats.TotalStars)},
		{Name: "TotalViews", Value: float64(stats.TotalViews)},
		{Name: "AvgAnswersPerQuestion", Value: float64(stats.TotalAnswers) / float64(questions)},
	}
}

// ScheduleMetrics sends platform metrics to CloudWatch in the background.
func (s *IntegrationService) ScheduleMetrics(ctx context.Context) (*MetricsResult, error) {
	stats, err := s.platformStats(ctx)
	if err != nil {
		return nil, err
	}
	metrics := PlatformMetrics(stats)
	values := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		values[m.Name] = m.Value
	}
	s.spawn(ctx, "cloudwatch_metrics", func(ctx context.Context) error {
		if !s.cloud.SendMetrics(ctx, metrics) {
			return fmt.Errorf("metrics not delivered")
		}
		return nil
	})
	return &MetricsResult{Message: "Metrics scheduled for sending to CloudWatch", Metrics: values}, nil
}

func (s *IntegrationService) platformStats(ctx context.Context) (*models.PlatformStats, error) {
	var stats models.PlatformStats
	err := cache.Aside(ctx, cache.PlatformStatsKey, &stats, cache.PlatformStatsTTL, func() error {
		fresh, err := s.stats.Platform(ctx)
		if err != nil {
			return err
		}
		stats = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type SlackStatus struct {
	Configured bool   `json:"configured"`
	Status     string `json:"status"`
}

type AWSStatus struct {
	S3Configured         bool   `json:"s3_configured"`
	CloudWatchConfigured bool   `json:"cloudwatch_configured"`
	Status               string `json:"status"`
}

type AIStatus struct {
	Configured bool   `json:"configured"`
	Status     string `json:"status"`
}

type IntegrationStatus struct {
	Slack SlackStatus `json:"slack"`
	AWS   AWSStatus   `json:"aws"`
	AI    AIStatus    `json:"ai"`
}

func (s *IntegrationService) Status() IntegrationStatus {
	slackOn := s.slack.Configured()
	s3On, cwOn := s.cloud.S3Configured(), s.cloud.CloudWatchConfigured()
	aiOn := s.aiEnabled()

	awsStatus := StatusNotConfigured
	switch {
	case s3On && cwOn:
		awsStatus = StatusActive
	case s3On || cwOn:
		awsStatus = StatusPartial
	}

	return IntegrationStatus{
		Slack: SlackStatus{Configured: slackOn, Status: activeOr(slackOn)},
		AWS:   AWSStatus{S3Configured: s3On, CloudWatchConfigured: cwOn, Status: awsStatus},
		AI:    AIStatus{Configured: aiOn, Status: activeOr(aiOn)},
	}
}

func activeOr(on bool) string {
	if on {
		return StatusActive
	}
	return StatusNotConfigured
}
