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

type StarService struct {
	stars   repository.StarRepository
	answers repository.AnswerRepository
	events  EventPublisher
	flags   *featureflags.Manager
}

func NewStarService(
	stars repository.StarRepository,
	answers repository.AnswerRepository,
	events EventPublisher,
	flags *featureflags.Manager,
) *StarService {
	return &StarService{stars: stars, answers: answers, events: events, flags: flags}
}

// StarEvent is the live feed payload for a new star.
type StarEvent struct {
	AnswerID   string `json:"answer_id"`
	QuestionID string `json:"question_id"`
	UserID     string `json:"user_id"`
	StarsCount int    `json:"stars_count"`
}

func (s *StarService) Star(ctx context.Context, userID, answerID string) (*models.Star, error) {
	answerID = strings.TrimSpace(answerID)
	if answerID == "" {
		return nil, models.NewValidationError("answer_id is required")
	}
	if !models.ValidID(answerID) {
		return nil, models.NewNotFoundMessage(repository.AnswerNotFound)
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}

	star := &models.Star{UserID: userID, QuestionID: answer.QuestionID, AnswerID: answer.ID}
	if err := s.stars.Create(ctx, star); err != nil {
		return nil, err
	}
	if err := s.answers.IncrementStars(ctx, answer.ID, 1); err != nil {
		return nil, err
	}
	observability.ContentCreatedTotal.WithLabelValues("star").Inc()

	publish(ctx, s.events, s.flags, userID, notifications.EventAnswerStarred, StarEvent{
		AnswerID:   answer.ID,
		QuestionID: answer.QuestionID,
		UserID:     userID,
		StarsCount: answer.StarsCount + 1,
	})
	return star, nil
}

func (s *StarService) Unstar(ctx context.Context, userID, answerID string) error {
	removed, err := s.stars.Delete(ctx, userID, answerID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundMessage("Star not found")
	}
	return s.answers.IncrementStars(ctx, answerID, -1)
}

// ListMine returns the stars userID has given, newest first.
func (s *StarService) ListMine(ctx context.Context, userID string) ([]models.Star, error) {
	return s.stars.ListByUser(ctx, userID, 0)
}
