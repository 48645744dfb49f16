package repository

import (
	"context"
	"testing"
	"time"

	"askaway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanUserRemoval(t *testing.T) {
	t.Parallel()
	answers := []models.Answer{
		{ID: "a1", UserID: "alice", QuestionID: "bob-q"},
		{ID: "a2", UserID: "bob", QuestionID: "alice-q"},
		{ID: "a3", UserID: "bob", QuestionID: "bob-q"},
		{ID: "a2", UserID: "bob", QuestionID: "alice-q"},
	}
	stars := []models.Star{
		{ID: "s1", UserID: "carol", AnswerID: "a1"},
		{ID: "s2", UserID: "bob", AnswerID: "a9"},
		{ID: "s3", UserID: "bob", AnswerID: "a9"},
		{ID: "s4", UserID: "carol", AnswerID: "a2"},
	}

	plan := planUserRemoval("bob", []string{"bob-q"}, answers, stars)

	assert.Equal(t, []string{"bob-q"}, plan.questionIDs)
	assert.Equal(t, []string{"a1", "a2", "a3"}, plan.answerIDs)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, plan.starIDs)
	assert.Equal(t, map[string]int{"alice-q": 1}, plan.answersLost)
	assert.Equal(t, map[string]int{"a9": 2}, plan.starsLost)
	assert.Equal(t, map[string]int{"alice": 1}, plan.authoredLost)
	assert.Equal(t, []string{"alice"}, plan.touchedUsers())
}

func TestUserRepository_DeleteRemovesContent(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	questions := NewQuestionRepository(db)
	answers := NewAnswerRepository(db)
	stars := NewStarRepository(db)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	carol := seedUser(t, users, "carol")

	addAnswer := func(user *models.User, q *models.Question) *models.Answer {
		a := &models.Answer{Content: "answer", UserID: user.ID, QuestionID: q.ID}
		require.NoError(t, answers.Create(ctx, a))
		require.NoError(t, questions.IncrementAnswers(ctx, q.ID, 1))
		require.NoError(t, users.IncrementCounters(ctx, user.ID, 0, 1))
		return a
	}
	addStar := func(user *models.User, a *models.Answer) {
		require.NoError(t, stars.Create(ctx, &models.Star{UserID: user.ID, QuestionID: a.QuestionID, AnswerID: a.ID}))
		require.NoError(t, answers.IncrementStars(ctx, a.ID, 1))
	}

	aliceQ := seedQuestion(t, questions, alice.ID, "Alice asks", time.Now())
	bobQ := seedQuestion(t, questions, bob.ID, "Bob asks", time.Now())

	bobOnAlice := addAnswer(bob, aliceQ)
	aliceOnBob := addAnswer(alice, bobQ)
	carolOnAlice := addAnswer(carol, aliceQ)
	addStar(alice, bobOnAlice)
	addStar(carol, aliceOnBob)
	addStar(bob, carolOnAlice)
	require.NoError(t, questions.RecordView(ctx, &models.QuestionView{QuestionID: bobQ.ID}))

	require.NoError(t, users.Delete(ctx, bob.ID))

	_, err := questions.GetByID(ctx, bobQ.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	q, err := questions.GetByID(ctx, aliceQ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.AnswersCount)

	left, err := answers.ListByQuestion(ctx, aliceQ.ID, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, carolOnAlice.ID, left[0].ID)
	assert.Equal(t, 0, left[0].StarsCount)

	_, err = answers.GetByID(ctx, aliceOnBob.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var remaining int64
	require.NoError(t, db.Model(&models.Star{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&models.QuestionView{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AnswersCount)
	got, err = users.GetByID(ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswersCount)
}
