package repository

import (
	"context"
	"errors"

	"askaway/internal/database"
	"askaway/internal/models"
	"askaway/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type mongoStatsRepository struct {
	db     *mongo.Database
	logger *observability.RepoLogger
}

// NewMongoStatsRepository returns the MongoDB StatsRepository.
func NewMongoStatsRepository(db *mongo.Database) StatsRepository {
	return &mongoStatsRepository{db: db, logger: observability.NewRepoLogger("stats")}
}

func (r *mongoStatsRepository) count(ctx context.Context, collection string, filter bson.M, dest *int64) func() error {
	return func() error {
		n, err := r.db.Collection(collection).CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		*dest = n
		return nil
	}
}

func (r *mongoStatsRepository) Platform(ctx context.Context) (stats *models.PlatformStats, err error) {
	ctx, done := op(ctx, systemMongo, "platform_stats", "stats")
	defer func() { done(err) }()

	stats = &models.PlatformStats{}
	all := bson.M{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, database.CollectionUsers, all, &stats.TotalUsers))
	g.Go(r.count(gctx, database.CollectionQuestions, all, &stats.TotalQuestions))
	g.Go(r.count(gctx, database.CollectionAnswers, all, &stats.TotalAnswers))
	g.Go(r.count(gctx, database.CollectionStars, all, &stats.TotalStars))
	g.Go(r.count(gctx, database.CollectionQuestionViews, all, &stats.TotalViews))
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, r.logger, "platform", err)
	}
	return stats, nil
}

func (r *mongoStatsRepository) Activity(ctx context.Context, window models.TimeWindow) (*models.DailyActivity, error) {
	activity := &models.DailyActivity{Date: window.Start.Format("2006-01-02")}
	between := bson.M{"$gte": window.Start, "$lt": window.End}
	created := bson.M{"created_at": between}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, database.CollectionQuestions, created, &activity.NewQuestions))
	g.Go(r.count(gctx, database.CollectionAnswers, created, &activity.NewAnswers))
	g.Go(r.count(gctx, database.CollectionUsers, bson.M{"updated_at": between}, &activity.ActiveUsers))
	g.Go(r.count(gctx, database.CollectionQuestionViews, created, &activity.TotalViews))
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, r.logger, "activity", err)
	}
	return activity, nil
}

// aggregate runs a $group aggregation and returns the named accumulator, or nil
// when no document matched.
func (r *mongoStatsRepository) aggregate(ctx context.Context, collection string, match bson.M, accumulator bson.M) (*float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "value": accumulator}}},
	}
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Value float64 `bson:"value"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].Value, nil
}

func (r *mongoStatsRepository) User(ctx context.Context, userID string) (*models.UserStats, error) {
	var user models.User
	err := r.db.Collection(database.CollectionUsers).FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"questions_count": 1, "answers_count": 1})).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	stats := &models.UserStats{QuestionsCount: user.QuestionsCount, AnswersCount: user.AnswersCount}

	received, err := r.aggregate(ctx, database.CollectionAnswers, bson.M{"user_id": userID}, bson.M{"$sum": "$stars_count"})
	if err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	if received != nil {
		stats.StarsReceived = int64(*received)
	}

	if stats.StarsGiven, err = r.db.Collection(database.CollectionStars).CountDocuments(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}

	views, err := r.aggregate(ctx, database.CollectionQuestions, bson.M{"user_id": userID}, bson.M{"$sum": "$views"})
	if err != nil {
		return nil, internal(ctx, r.logger, "user_stats", err)
	}
	if views != nil {
		stats.TotalViews = int64(*views)
	}
	return stats, nil
}

func (r *mongoStatsRepository) AI(ctx context.Context) (*models.AIStats, error) {
	stats := &models.AIStats{}
	var questionAvg, answerAvg *float64
	scored := bson.M{"quality_score": bson.M{"$gt": 0}}
	avg := bson.M{"$avg": "$quality_score"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.count(gctx, database.CollectionQuestions, bson.M{}, &stats.TotalQuestions))
	g.Go(r.count(gctx, database.CollectionAnswers, bson.M{}, &stats.TotalAnswers))
	g.Go(r.count(gctx, database.CollectionQuestions,
		bson.M{"ai_summary": bson.M{"$exists": true, "$ne": ""}}, &stats.QuestionsWithAISummaries))
	g.Go(func() (err error) {
		questionAvg, err = r.aggregate(gctx, database.CollectionQuestions, scored, avg)
		return err
	})
	g.Go(func() (err error) {
		answerAvg, err = r.aggregate(gctx, database.CollectionAnswers, scored, avg)
		return err
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
