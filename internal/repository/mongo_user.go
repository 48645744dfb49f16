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

type mongoUserRepository struct {
	db     *mongo.Database
	users  *mongo.Collection
	logger *observability.RepoLogger
}

// NewMongoUserRepository returns the MongoDB UserRepository.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		db:     db,
		users:  db.Collection(database.CollectionUsers),
		logger: observability.NewRepoLogger(database.CollectionUsers),
	}
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.findOne(ctx, "get_by_id", bson.M{"_id": id})
	if err == nil && user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, err
}

func (r *mongoUserRepository) findOne(ctx context.Context, operation string, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, internal(ctx, r.logger, operation, err)
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "get_by_email", bson.M{"email": email})
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "get_by_username", bson.M{"username": username})
}

func (r *mongoUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, "get_by_google_id", bson.M{"google_id": googleID})
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := op(ctx, systemMongo, "create", database.CollectionUsers)
	defer func() { done(err) }()

	if user.ID == "" {
		user.ID = models.NewID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if isUniqueConstraintError(err) {
			return userConflict(err)
		}
		return internal(ctx, r.logger, "create", err)
	}
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if isUniqueConstraintError(err) {
			return userConflict(err)
		}
		return internal(ctx, r.logger, "update", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	return nil
}

// Delete removes the user, then the questions, answers and stars that go
// with the account, and corrects the counters of the content that stays.
// Standalone servers have no multi-document transactions, so the steps run
// in order and a failure part way leaves only orphaned content behind.
func (r *mongoUserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, done := op(ctx, systemMongo, "delete", database.CollectionUsers)
	defer func() { done(err) }()

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(ctx, r.logger, "delete", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("User", id)
	}

	plan, err := r.loadRemoval(ctx, id)
	if err != nil {
		return internal(ctx, r.logger, "delete_load_content", err)
	}
	if err := r.applyRemoval(ctx, plan); err != nil {
		return internal(ctx, r.logger, "delete_cascade", err)
	}
	plan.forget(ctx)
	return nil
}

func (r *mongoUserRepository) loadRemoval(ctx context.Context, userID string) (*userRemoval, error) {
	var owned []struct {
		ID string `bson:"_id"`
	}
	cur, err := r.db.Collection(database.CollectionQuestions).Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &owned); err != nil {
		return nil, err
	}
	questionIDs := make([]string, len(owned))
	for i, q := range owned {
		questionIDs[i] = q.ID
	}

	var answers []models.Answer
	if err := r.findAll(ctx, database.CollectionAnswers, ownedOr(userID, "question_id", questionIDs), &answers); err != nil {
		return nil, err
	}
	answerIDs := make([]string, len(answers))
	for i, a := range answers {
		answerIDs[i] = a.ID
	}

	var stars []models.Star
	if err := r.findAll(ctx, database.CollectionStars, ownedOr(userID, "answer_id", answerIDs), &stars); err != nil {
		return nil, err
	}
	return planUserRemoval(userID, questionIDs, answers, stars), nil
}

// ownedOr matches documents written by userID or whose field is in ids.
func ownedOr(userID, field string, ids []string) bson.M {
	if len(ids) == 0 {
		return bson.M{"user_id": userID}
	}
	return bson.M{"$or": bson.A{
		bson.M{"user_id": userID},
		bson.M{field: bson.M{"$in": ids}},
	}}
}

func (r *mongoUserRepository) findAll(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	cur, err := r.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (r *mongoUserRepository) applyRemoval(ctx context.Context, plan *userRemoval) error {
	decrement := func(collection, field string, counts map[string]int) error {
		for id, n := range counts {
			if _, err := r.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$inc": bson.M{field: -n}}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := decrement(database.CollectionQuestions, "answers_count", plan.answersLost); err != nil {
		return err
	}
	if err := decrement(database.CollectionAnswers, "stars_count", plan.starsLost); err != nil {
		return err
	}
	if err := decrement(database.CollectionUsers, "answers_count", plan.authoredLost); err != nil {
		return err
	}

	deletes := []struct {
		collection string
		field      string
		ids        []string
	}{
		{database.CollectionStars, "_id", plan.starIDs},
		{database.CollectionAnswers, "_id", plan.answerIDs},
		{database.CollectionQuestionViews, "question_id", plan.questionIDs},
		{database.CollectionQuestions, "_id", plan.questionIDs},
	}
	for _, d := range deletes {
		if len(d.ids) == 0 {
			continue
		}
		if _, err := r.db.Collection(d.collection).DeleteMany(ctx, bson.M{d.field: bson.M{"$in": d.ids}}); err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoUserRepository) IncrementCounters(ctx context.Context, id string, questions, answers int) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"questions_count": questions, "answers_count": answers},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return internal(ctx, r.logger, "increment_counters", err)
	}
	return nil
}
