package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"askaway/internal/models"
	"askaway/internal/observability"

	"gorm.io/gorm"
)

// QuestionNotFound is the message reported for unknown question IDs.
const QuestionNotFound = "Question not found"

// QuestionRepository defines persistence operations for questions and their views.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, skip, limit int) ([]models.Question, error)
	// Search returns questions whose title, content or tags contain any of
	// terms, case-insensitively, newest first.
	Search(ctx context.Context, terms []string, limit int) ([]models.Question, error)
	RecordView(ctx context.Context, view *models.QuestionView) error
	IncrementAnswers(ctx context.Context, id string, delta int) error
	SetSummary(ctx context.Context, id, summary string) error
}

type questionRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewQuestionRepository returns the GORM QuestionRepository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db, logger: observability.NewRepoLogger("questions")}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(QuestionNotFound)
		}
		return nil, internal(ctx, r.logger, "get_by_id", err)
	}
	return &question, nil
}

func (r *questionRepository) List(ctx context.Context, skip, limit int) ([]models.Question, error) {
	if skip < 0 {
		skip = 0
	}
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(skip).
		Limit(clampLimit(limit, maxListLimit)).
		Find(&questions).Error
	if err != nil {
		return nil, internal(ctx, r.logger, "list", err)
	}
	return questions, nil
}

const searchClause = `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\'`

func (r *questionRepository) Search(ctx context.Context, terms []string, limit int) (questions []models.Question, err error) {
	ctx, done := op(ctx, systemPostgres, "search", "questions")
	defer func() { done(err) }()

	session := r.db.WithContext(ctx)
	var cond *gorm.DB
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		pattern := "%" + escapeLike(term) + "%"
		if cond == nil {
			cond = session.Where(searchClause, pattern, pattern, pattern)
		} else {
			cond = cond.Or(searchClause, pattern, pattern, pattern)
		}
	}
	if cond == nil {
		return []models.Question{}, nil
	}

	if err := session.Where(cond).
		Order("created_at DESC").
		Limit(clampLimit(limit, 50)).
		Find(&questions).Error; err != nil {
		return nil, internal(ctx, r.logger, "search", err)
	}
	return questions, nil
}

func (r *questionRepository) RecordView(ctx context.Context, view *models.QuestionView) error {
	if view.ID == "" {
		view.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(view).Error; err != nil {
			return internal(ctx, r.logger, "record_view", err)
		}
		res := tx.Model(&models.Question{}).Where("id = ?", view.QuestionID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return internal(ctx, r.logger, "record_view", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundMessage(QuestionNotFound)
		}
		return nil
	})
}

func (r *questionRepository) IncrementAnswers(ctx context.Context, id string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"answers_count": gorm.Expr("answers_count + ?", delta),
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return internal(ctx, r.logger, "increment_answers", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage(QuestionNotFound)
	}
	return nil
}

func (r *questionRepository) SetSummary(ctx context.Context, id, summary string) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"ai_summary": summary,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return internal(ctx, r.logger, "set_summary", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage(QuestionNotFound)
	}
	return nil
}
