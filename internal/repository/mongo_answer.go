package repository

import (
	"context"
	"errors"
	"time"

	"askaway/internal/database"
	"askaway/internal/models"
	"askaway/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAnswerRepository struct {
	answers *mongo.Collection
	logger  *observability.RepoLogger
}

// NewMongoAnswerRepository returns the MongoDB AnswerRepository.
func NewMongoAnswerRepository(db *mongo.Database) AnswerRepository {
	return &mongoAnswerRepository{
		answers: db.Collection(database.CollectionAnswers),
		logger:  observability.NewRepoLogger(database.CollectionAnswers),
	}
}

func (r *mongoAnswerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = models.NewID()
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now

	if _, err := r.answers.InsertOne(ctx, answer); err != nil {
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *mongoAnswerRepository) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := r.answers.FindOne(ctx, bson.M{"_id": id}).Decode(&answer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundMessage(AnswerNotFound)
		}
		return nil, internal(ctx, r.logger, "get_by_id", err)
	}
	return &answer, nil
}

func (r *mongoAnswerRepository) ListByQuestion(ctx context.Context, questionID string, limit int) ([]models.Answer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(clampLimit(limit, maxListLimit)))
	cursor, err := r.answers.Find(ctx, bson.M{"question_id": questionID}, opts)
	if err != nil {
		return nil, internal(ctx, r.logger, "list_by_question", err)
	}
	answers := []models.Answer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, internal(ctx, r.logger, "list_by_question", err)
	}
	return answers, nil
}

func (r *mongoAnswerRepository) update(ctx context.Context, operation, id string, update bson.M) error {
	res, err := r.answers.UpdateByID(ctx, id, update)
	if err != nil {
		return internal(ctx, r.logger, operation, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundMessage(AnswerNotFound)
	}
	return nil
}

func (r *mongoAnswerRepository) SetQualityScore(ctx context.Context, id string, score int) error {
	return r.update(ctx, "set_quality_score", id, bson.M{
		"$set": bson.M{"quality_score": score, "updated_at": time.Now().UTC()},
	})
}

func (r *mongoAnswerRepository) IncrementStars(ctx context.Context, id string, delta int) error {
	return r.update(ctx, "increment_stars", id, bson.M{"$inc": bson.M{"stars_count": delta}})
}
