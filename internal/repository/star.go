package repository

import (
	"context"

	"askaway/internal/models"
	"askaway/internal/observability"

	"gorm.io/gorm"
)

// AlreadyStarred is the conflict message for a duplicate star.
const AlreadyStarred = "Answer already starred"

// StarRepository defines persistence operations for stars.
type StarRepository interface {
	Create(ctx context.Context, star *models.Star) error
	// Delete removes userID's star on answerID and reports whether one existed.
	Delete(ctx context.Context, userID, answerID string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Star, error)
}

type starRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewStarRepository returns the GORM StarRepository.
func NewStarRepository(db *gorm.DB) StarRepository {
	return &starRepository{db: db, logger: observability.NewRepoLogger("stars")}
}

func (r *starRepository) Create(ctx context.Context, star *models.Star) error {
	if star.ID == "" {
		star.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(star).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(AlreadyStarred)
		}
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *starRepository) Delete(ctx context.Context, userID, answerID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND answer_id = ?", userID, answerID).
		Delete(&models.Star{})
	if res.Error != nil {
		return false, internal(ctx, r.logger, "delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *starRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Star, error) {
	var stars []models.Star
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(clampLimit(limit, maxListLimit)).
		Find(&stars).Error
	if err != nil {
		return nil, internal(ctx, r.logger, "list_by_user", err)
	}
	return stars, nil
}
