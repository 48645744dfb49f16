package service

import (
	"context"
	"strings"

	"askaway/internal/featureflags"
	"askaway/internal/models"
	"askaway/internal/notifications"
	"askaway/internal/observability"
	"askaway/internal/repository"
)

type AnswerService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	users     repository.UserRepository
	events    EventPublisher
	notifier  ContentNotifier
	flags     *featureflags.Manager
	spawn     Spawner
}

type CreateAnswerInput struct {
	UserID     string
	QuestionID string
	Content    string
}

func NewAnswerService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	users repository.UserRepository,
	events EventPublisher,
	notifier ContentNotifier,
	flags *featureflags.Manager,
	spawn Spawner,
) *AnswerService {
	return &AnswerService{
		questions: questions,
		answers:   answers,
		users:     users,
		events:    events,
		notifier:  notifier,
		flags:     flags,
		spawn:     spawnerOrDefault(spawn),
	}
}

// CreateAnswer stores an unscored answer and bumps both denormalized
// answer counters.
func (s *AnswerService) CreateAnswer(ctx context.Context, in CreateAnswerInput) (*models.Answer, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if !models.ValidID(in.QuestionID) {
		return nil, models.NewNotFoundMessage(repository.QuestionNotFound)
	}

	question, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		Content:      content,
		UserID:       author.ID,
		QuestionID:   question.ID,
		QualityScore: models.DefaultQualityScore,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}
	if err := s.questions.IncrementAnswers(ctx, question.ID, 1); err != nil {
		return nil, err
	}
	if err := s.users.IncrementCounters(ctx, author.ID, 0, 1); err != nil {
		return nil, err
	}
	question.AnswersCount++
	observability.ContentCreatedTotal.WithLabelValues("answer").Inc()

	publish(ctx, s.events, s.flags, author.ID, notifications.EventAnswerCreated, answer)
	if slackEnabled(s.notifier, s.flags, author.ID) {
		s.spawn(ctx, "slack_new_answer", func(ctx context.Context) error {
			s.notifier.NotifyNewAnswer(ctx, question, answer, author)
			return nil
		})
	}
	return answer, nil
}
