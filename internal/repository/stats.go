package repository

import (
	"context"
	"math"

	"askaway/internal/models"
	"askaway/internal/observability"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StatsRepository computes platform aggregates.
type StatsRepository interface {
	Platform(ctx context.Context) (*models.PlatformStats, error)
	// Activity counts rows created (or, for users, updated) inside window.
	Activity(ctx context.Context, window models.TimeWindow) (*models.DailyActivity, error)
	User(ctx context.Context, userID string) (*models.UserStats, error)
	// AI fills every AIStats field except AIFeaturesEnabled.
	AI(ctx context.Context) (*models.AIStats, error)
}

type statsRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewStatsRepository returns the GORM StatsRepository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db, logger: observability.NewRepoLogger("stats")}
}

func (r *statsRepository) count(ctx context.Context, model interface{}, dest *int64, query string, args ...interface{}) func() error {
	return func() error {
		tx := r.db.WithContext(ctx).Model(model)
		if query != "" {
			tx = tx.Where(query, args...)
		}
		return tx.Count(dest).Error
	}
}

func (r *statsRepository) Platform(ctx context.Context) (stats *models.PlatformStats, err error) {
	ctx, done := op(ctx, systemPostgres, "platform_stats", "stats")
	defer func() { done(err) }()

	stats = &models.PlatformStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, &models.User{}, &stats.TotalUsers, ""))
	g.Go(r.count(gctx, &models.Question{}, &stats.TotalQuestions, ""))
	g.Go(r.count(gctx, &models.Answer{}, &stats.TotalAnswers, ""))
	g.Go(r.count(gctx, &models.Star{}, &stats.TotalStars, ""))
	g.Go(r.count(gctx, &models.QuestionView{}, &stats.TotalViews, ""))
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, r.logger, "platform", err)
	}
	return stats, nil
}

func (r *statsRepository) Activity(ctx context.Context, window models.TimeWindow) (*models.DailyActivity, error) {
	activity := &models.DailyActivity{Date: window.Start.Format("2006-01-02")}
	const created = "created_at >= ? AND created_at < ?"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, &models.Question{}, &activity.NewQuestions, created, window.Start, window.End))
	g.Go(r.count(gctx, &models.Answer{}, &activity.NewAnswers, created, window.Start, window.End))
	g.Go(r.count(gctx, &models.User{}, &activity.ActiveUsers, "updated_at >= ? AND updated_at < ?", window.Start, window.End))
	g.Go(r.count(gctx, &models.QuestionView{}, &activity.TotalViews, created, window.Start, window.End))
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, r.logger, "activity", err)
	}
	return activity, nil
}

func (r *statsRepository) User(ctx context.Context, userID string) (*models.UserStats, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("questions_count", "answers_count").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, internal(ctx, r.logger, "user_stats", err)
	}

	stats := &models.UserStats{QuestionsCount: user.QuestionsCount, AnswersCount: user.AnswersCount}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Star{}).
		Joins("JOIN answers ON answers.id = stars.answer_id").
		Where("answers.user_id = ?", userID).
		Count(&stats.StarsReceived).Error; err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	if err := db.Model(&models.Star{}).Where("user_id = ?", userID).Count(&stats.StarsGiven).Error; err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	if err := db.Model(&models.Question{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(views), 0)").Scan(&stats.TotalViews).Error; err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	return stats, nil
}

func (r *statsRepository) AI(ctx context.Context) (*models.AIStats, error) {
	stats := &models.AIStats{}
	var questionAvg, answerAvg *float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, &models.Question{}, &stats.TotalQuestions, ""))
	g.Go(r.count(gctx, &models.Answer{}, &stats.TotalAnswers, ""))
	g.Go(r.count(gctx, &models.Question{}, &stats.QuestionsWithAISummaries, "ai_summary IS NOT NULL AND ai_summary <> ''"))
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Question{}).
			Where("quality_score > 0").Select("AVG(quality_score)").Scan(&questionAvg).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Answer{}).
			Where("quality_score > 0").Select("AVG(quality_score)").Scan(&answerAvg).Error
	})
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, r.logger, "ai_stats", err)
	}

	if questionAvg != nil {
		stats.AverageQuestionQuality = round2(*questionAvg)
	}
	if answerAvg != nil {
		stats.AverageAnswerQuality = round2(*answerAvg)
	}
	stats.AISummaryCoverage = coverage(stats.QuestionsWithAISummaries, stats.TotalQuestions)
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// coverage is part/total as a percentage rounded to two decimals.
func coverage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}
