package repository

import (
	"context"
	"errors"
	"time"

	"askaway/internal/models"
	"askaway/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
// Lookups by email, username or Google ID return (nil, nil) when nothing matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	IncrementCounters(ctx context.Context, id string, questions, answers int) error
}

type userRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, logger: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, internal(ctx, r.logger, "get_by_id", err)
	}
	return &user, nil
}

func (r *userRepository) findOne(ctx context.Context, operation, column, value string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internal(ctx, r.logger, operation, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "get_by_email", "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "get_by_username", "username", username)
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, "get_by_google_id", "google_id", googleID)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := op(ctx, systemPostgres, "create", "users")
	defer func() { done(err) }()

	if user.ID == "" {
		user.ID = models.NewID()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return userConflict(err)
		}
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return userConflict(err)
		}
		return internal(ctx, r.logger, "update", err)
	}
	return nil
}

// Delete removes the user together with their questions, answers and stars
// in one transaction and corrects the counters of the content that stays.
func (r *userRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, done := op(ctx, systemPostgres, "delete", "users")
	defer func() { done(err) }()

	var plan *userRemoval
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		var loadErr error
		if plan, loadErr = loadUserRemoval(tx, id); loadErr != nil {
			return loadErr
		}
		if err := applyUserRemoval(tx, plan); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("User", id)
	}
	if err != nil {
		return internal(ctx, r.logger, "delete", err)
	}
	plan.forget(ctx)
	return nil
}

func loadUserRemoval(tx *gorm.DB, userID string) (*userRemoval, error) {
	var questionIDs []string
	if err := tx.Model(&models.Question{}).Where("user_id = ?", userID).Pluck("id", &questionIDs).Error; err != nil {
		return nil, err
	}

	var answers []models.Answer
	answerQuery := tx.Where("user_id = ?", userID)
	if len(questionIDs) > 0 {
		answerQuery = answerQuery.Or("question_id IN ?", questionIDs)
	}
	if err := answerQuery.Find(&answers).Error; err != nil {
		return nil, err
	}

	var stars []models.Star
	starQuery := tx.Where("user_id = ?", userID)
	if len(answers) > 0 {
		answerIDs := make([]string, len(answers))
		for i, a := range answers {
			answerIDs[i] = a.ID
		}
		starQuery = starQuery.Or("answer_id IN ?", answerIDs)
	}
	if err := starQuery.Find(&stars).Error; err != nil {
		return nil, err
	}
	return planUserRemoval(userID, questionIDs, answers, stars), nil
}

func applyUserRemoval(tx *gorm.DB, plan *userRemoval) error {
	for id, n := range plan.answersLost {
		if err := tx.Model(&models.Question{}).Where("id = ?", id).
			UpdateColumn("answers_count", gorm.Expr("answers_count - ?", n)).Error; err != nil {
			return err
		}
	}
	for id, n := range plan.starsLost {
		if err := tx.Model(&models.Answer{}).Where("id = ?", id).
			UpdateColumn("stars_count", gorm.Expr("stars_count - ?", n)).Error; err != nil {
			return err
		}
	}
	for id, n := range plan.authoredLost {
		if err := tx.Model(&models.User{}).Where("id = ?", id).
			UpdateColumn("answers_count", gorm.Expr("answers_count - ?", n)).Error; err != nil {
			return err
		}
	}

	if len(plan.starIDs) > 0 {
		if err := tx.Where("id IN ?", plan.starIDs).Delete(&models.Star{}).Error; err != nil {
			return err
		}
	}
	if len(plan.answerIDs) > 0 {
		if err := tx.Where("id IN ?", plan.answerIDs).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
	}
	if len(plan.questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", plan.questionIDs).Delete(&models.QuestionView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", plan.questionIDs).Delete(&models.Question{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) IncrementCounters(ctx context.Context, id string, questions, answers int) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"questions_count": gorm.Expr("questions_count + ?", questions),
		"answers_count":   gorm.Expr("answers_count + ?", answers),
		"updated_at":      time.Now(),
	}).Error
	if err != nil {
		return internal(ctx, r.logger, "increment_counters", err)
	}
	return nil
}
