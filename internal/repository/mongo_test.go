package repository

import (
	"context"
	"testing"

	"askaway/internal/database"
	"askaway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func duplicateKey(index string) bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: askaway.x index: " + index,
	})
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "askaway." + database.CollectionUsers

	mt.Run("create assigns an id", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Username: "alice", Email: "alice@example.com"}
		require.NoError(mt, repo.Create(context.Background(), user))
		assert.True(mt, models.ValidID(user.ID))
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(duplicateKey("uniq_email dup key: { email: \"alice@example.com\" }"))

		err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com"})
		require.Error(mt, err)
		assert.Equal(mt, ErrEmailTaken, err.(*models.AppError).Message)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := models.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "password", Value: "hashed"},
		}))

		user, err := repo.GetByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, "alice", user.Username)
		assert.Equal(mt, "hashed", user.Password)
	})

	mt.Run("missing lookups", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.NoError(mt, err)
		assert.Nil(mt, user)

		_, err = repo.GetByID(context.Background(), models.NewID())
		assert.True(mt, models.IsCode(err, models.CodeNotFound))
	})

	mt.Run("delete without content", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionQuestions, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionAnswers, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionStars, mtest.FirstBatch),
		)
		require.NoError(mt, repo.Delete(context.Background(), models.NewID()))
	})

	mt.Run("delete cascades and corrects counters", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		bob, alice, carol := models.NewID(), models.NewID(), models.NewID()
		bobQuestion, aliceQuestion := models.NewID(), models.NewID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionQuestions, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: bobQuestion}}),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionAnswers, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "a1"}, {Key: "user_id", Value: alice}, {Key: "question_id", Value: bobQuestion}},
				bson.D{{Key: "_id", Value: "a2"}, {Key: "user_id", Value: bob}, {Key: "question_id", Value: aliceQuestion}},
			),
			mtest.CreateCursorResponse(0, "askaway."+database.CollectionStars, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "s1"}, {Key: "user_id", Value: carol}, {Key: "answer_id", Value: "a1"}},
				bson.D{{Key: "_id", Value: "s2"}, {Key: "user_id", Value: bob}, {Key: "answer_id", Value: "a9"}},
			),
		)
		// Three counter corrections, then stars, answers, views and questions.
		for i := 0; i < 7; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		}

		require.NoError(mt, repo.Delete(context.Background(), bob))
	})

	mt.Run("delete unknown", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), models.NewID())
		assert.True(mt, models.IsCode(err, models.CodeNotFound))
	})
}

func TestMongoStarRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate star", func(mt *mtest.T) {
		repo := NewMongoStarRepository(mt.DB)
		mt.AddMockResponses(duplicateKey("uniq_user_answer"))

		err := repo.Create(context.Background(), &models.Star{UserID: models.NewID(), AnswerID: models.NewID()})
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeConflict))
	})

	mt.Run("delete reports presence", func(mt *mtest.T) {
		repo := NewMongoStarRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		removed, err := repo.Delete(context.Background(), "u", "a")
		require.NoError(mt, err)
		assert.True(mt, removed)

		removed, err = repo.Delete(context.Background(), "u", "a")
		require.NoError(mt, err)
		assert.False(mt, removed)
	})
}

func TestMongoQuestionRepository_NotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewMongoQuestionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "askaway."+database.CollectionQuestions, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), models.NewID())
		require.Error(mt, err)
		assert.Equal(mt, QuestionNotFound, err.(*models.AppError).Message)
	})

	mt.Run("command error is internal", func(mt *mtest.T) {
		repo := NewMongoQuestionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := repo.List(context.Background(), 0, 10)
		assert.True(mt, models.IsCode(err, models.CodeInternal))
	})
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "dup"}},
	}))
	assert.False(t, isUniqueConstraintError(assert.AnError))
}
