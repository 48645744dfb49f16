package repository

import (
	"context"
	"errors"
	"time"

	"askaway/internal/models"
	"askaway/internal/observability"

	"gorm.io/gorm"
)

// AnswerNotFound is the message reported for unknown answer IDs.
const AnswerNotFound = "Answer not found"

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id string) (*models.Answer, error)
	// ListByQuestion returns answers oldest first.
	ListByQuestion(ctx context.Context, questionID string, limit int) ([]models.Answer, error)
	SetQualityScore(ctx context.Context, id string, score int) error
	IncrementStars(ctx context.Context, id string, delta int) error
}

type answerRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewAnswerRepository returns the GORM AnswerRepository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db, logger: observability.NewRepoLogger("answers")}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *answerRepository) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(AnswerNotFound)
		}
		return nil, internal(ctx, r.logger, "get_by_id", err)
	}
	return &answer, nil
}

func (r *answerRepository) ListByQuestion(ctx context.Context, questionID string, limit int) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Limit(clampLimit(limit, maxListLimit)).
		Find(&answers).Error
	if err != nil {
		return nil, internal(ctx, r.logger, "list_by_question", err)
	}
	return answers, nil
}

func (r *answerRepository) SetQualityScore(ctx context.Context, id string, score int) error {
	return r.updateColumns(ctx, "set_quality_score", id, map[string]interface{}{
		"quality_score": score,
		"updated_at":    time.Now(),
	})
}

func (r *answerRepository) IncrementStars(ctx context.Context, id string, delta int) error {
	return r.updateColumns(ctx, "increment_stars", id, map[string]interface{}{
		"stars_count": gorm.Expr("stars_count + ?", delta),
	})
}

func (r *answerRepository) updateColumns(ctx context.Context, operation, id string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Answer{}).Where("id = ?", id).UpdateColumns(values)
	if res.Error != nil {
		return internal(ctx, r.logger, operation, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage(AnswerNotFound)
	}
	return nil
}
