package service

import (
	"context"
	"log/slog"
	"strings"

	"askaway/internal/featureflags"
	"askaway/internal/models"
	"askaway/internal/notifications"
	"askaway/internal/observability"
	"askaway/internal/repository"
	"askaway/internal/validation"
)

const (
	DefaultListLimit   = 100
	DefaultSearchLimit = 50
)

type QuestionService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	users     repository.UserRepository
	events    EventPublisher
	notifier  ContentNotifier
	flags     *featureflags.Manager
	spawn     Spawner
}

type CreateQuestionInput struct {
	UserID  string
	Title   string
	Content string
	Tags    string
}

// NewQuestionService wires the question service. events and notifier may be
// nil; spawn defaults to Background.
func NewQuestionService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	users repository.UserRepository,
	events EventPublisher,
	notifier ContentNotifier,
	flags *featureflags.Manager,
	spawn Spawner,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		answers:   answers,
		users:     users,
		events:    events,
		notifier:  notifier,
		flags:     flags,
		spawn:     spawnerOrDefault(spawn),
	}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateQuestion(title, content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		Title:   title,
		Content: content,
		Tags:    tags,
		UserID:  author.ID,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}
	if err := s.users.IncrementCounters(ctx, author.ID, 1, 0); err != nil {
		return nil, err
	}
	observability.ContentCreatedTotal.WithLabelValues("question").Inc()

	publish(ctx, s.events, s.flags, author.ID, notifications.EventQuestionCreated, question)
	if slackEnabled(s.notifier, s.flags, author.ID) {
		s.spawn(ctx, "slack_new_question", func(ctx context.Context) error {
			s.notifier.NotifyNewQuestion(ctx, question, author)
			return nil
		})
	}
	return question, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, skip, limit int) ([]models.Question, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.questions.List(ctx, skip, limit)
}

// SearchQuestions matches q as one case-insensitive substring.
func (s *QuestionService) SearchQuestions(ctx context.Context, q string, limit int) ([]models.Question, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.questions.Search(ctx, []string{q}, searchLimit(limit))
}

// Feed returns questions matching any of the user's interests, or the newest
// questions when the user has none.
func (s *QuestionService) Feed(ctx context.Context, userID string, limit int) ([]models.Question, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit = searchLimit(limit)
	terms := validation.SplitInterests(user.Interests)
	if len(terms) == 0 {
		return s.questions.List(ctx, 0, limit)
	}
	return s.questions.Search(ctx, terms, limit)
}

// GetQuestion records a view by viewerID (empty for anonymous readers) and
// returns the question with the view counted.
func (s *QuestionService) GetQuestion(ctx context.Context, id, viewerID string) (*models.Question, error) {
	if !models.ValidID(id) {
		return nil, models.NewNotFoundMessage(repository.QuestionNotFound)
	}
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.questions.RecordView(ctx, &models.QuestionView{QuestionID: id, UserID: viewerID}); err != nil {
		return nil, err
	}
	question.Views++
	return question, nil
}

// ListAnswers returns a question's answers oldest first.
func (s *QuestionService) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	if !models.ValidID(questionID) {
		return nil, models.NewNotFoundMessage(repository.QuestionNotFound)
	}
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.answers.ListByQuestion(ctx, questionID, 0)
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

func publish(ctx context.Context, events EventPublisher, flags *featureflags.Manager, userID, eventType string, payload any) {
	if events == nil || !flags.EnabledOr(featureflags.LiveFeed, userID, true) {
		return
	}
	if err := events.PublishEvent(ctx, eventType, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish live feed event",
			"event", eventType, "error", err)
	}
}

func slackEnabled(notifier ContentNotifier, flags *featureflags.Manager, userID string) bool {
	return notifier != nil && notifier.Configured() &&
		flags.EnabledOr(featureflags.SlackNotifications, userID, true)
}
