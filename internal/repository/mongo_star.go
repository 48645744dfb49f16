package repository

import (
	"context"
	"time"

	"askaway/internal/database"
	"askaway/internal/models"
	"askaway/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStarRepository struct {
	stars  *mongo.Collection
	logger *observability.RepoLogger
}

// NewMongoStarRepository returns the MongoDB StarRepository.
func NewMongoStarRepository(db *mongo.Database) StarRepository {
	return &mongoStarRepository{
		stars:  db.Collection(database.CollectionStars),
		logger: observability.NewRepoLogger(database.CollectionStars),
	}
}

func (r *mongoStarRepository) Create(ctx context.Context, star *models.Star) error {
	if star.ID == "" {
		star.ID = models.NewID()
	}
	if star.CreatedAt.IsZero() {
		star.CreatedAt = time.Now().UTC()
	}
	if _, err := r.stars.InsertOne(ctx, star); err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(AlreadyStarred)
		}
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *mongoStarRepository) Delete(ctx context.Context, userID, answerID string) (bool, error) {
	res, err := r.stars.DeleteOne(ctx, bson.M{"user_id": userID, "answer_id": answerID})
	if err != nil {
		return false, internal(ctx, r.logger, "delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoStarRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Star, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(clampLimit(limit, maxListLimit)))
	cursor, err := r.stars.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, internal(ctx, r.logger, "list_by_user", err)
	}
	stars := []models.Star{}
	if err := cursor.All(ctx, &stars); err != nil {
		return nil, internal(ctx, r.logger, "list_by_user", err)
	}
	return stars, nil
}
