package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"askaway/internal/database"
	"askaway/internal/models"
	"askaway/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoQuestionRepository struct {
	questions *mongo.Collection
	views     *mongo.Collection
	logger    *observability.RepoLogger
}

// NewMongoQuestionRepository returns the MongoDB QuestionRepository.
func NewMongoQuestionRepository(db *mongo.Database) QuestionRepository {
	return &mongoQuestionRepository{
		questions: db.Collection(database.CollectionQuestions),
		views:     db.Collection(database.CollectionQuestionViews),
		logger:    observability.NewRepoLogger(database.CollectionQuestions),
	}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (r *mongoQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = models.NewID()
	}
	now := time.Now().UTC()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	if _, err := r.questions.InsertOne(ctx, question); err != nil {
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *mongoQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := r.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&question); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundMessage(QuestionNotFound)
		}
		return nil, internal(ctx, r.logger, "get_by_id", err)
	}
	return &question, nil
}

func (r *mongoQuestionRepository) find(ctx context.Context, operation string, filter interface{}, opts *options.FindOptions) ([]models.Question, error) {
	cursor, err := r.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, internal(ctx, r.logger, operation, err)
	}
	questions := []models.Question{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, internal(ctx, r.logger, operation, err)
	}
	return questions, nil
}

func (r *mongoQuestionRepository) List(ctx context.Context, skip, limit int) ([]models.Question, error) {
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(skip)).
		SetLimit(int64(clampLimit(limit, maxListLimit)))
	return r.find(ctx, "list", bson.M{}, opts)
}

func (r *mongoQuestionRepository) Search(ctx context.Context, terms []string, limit int) (questions []models.Question, err error) {
	ctx, done := op(ctx, systemMongo, "search", database.CollectionQuestions)
	defer func() { done(err) }()

	var or bson.A
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or = append(or,
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"tags": re},
		)
	}
	if len(or) == 0 {
		return []models.Question{}, nil
	}

	opts := options.Find().SetSort(newestFirst).SetLimit(int64(clampLimit(limit, 50)))
	return r.find(ctx, "search", bson.M{"$or": or}, opts)
}

func (r *mongoQuestionRepository) RecordView(ctx context.Context, view *models.QuestionView) error {
	res, err := r.questions.UpdateByID(ctx, view.QuestionID, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return internal(ctx, r.logger, "record_view", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundMessage(QuestionNotFound)
	}

	if view.ID == "" {
		view.ID = models.NewID()
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now().UTC()
	}
	if _, err := r.views.InsertOne(ctx, view); err != nil {
		return internal(ctx, r.logger, "record_view", err)
	}
	return nil
}

func (r *mongoQuestionRepository) update(ctx context.Context, operation, id string, update bson.M) error {
	res, err := r.questions.UpdateByID(ctx, id, update)
	if err != nil {
		return internal(ctx, r.logger, operation, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundMessage(QuestionNotFound)
	}
	return nil
}

func (r *mongoQuestionRepository) IncrementAnswers(ctx context.Context, id string, delta int) error {
	return r.update(ctx, "increment_answers", id, bson.M{
		"$inc": bson.M{"answers_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoQuestionRepository) SetSummary(ctx context.Context, id, summary string) error {
	return r.update(ctx, "set_summary", id, bson.M{
		"$set": bson.M{"ai_summary": summary, "updated_at": time.Now().UTC()},
	})
}
