package service

import (
	"context"
	"testing"

	"askaway/internal/models"
	"askaway/internal/notifications"
	"askaway/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerService_CreateAnswer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	questionID := models.NewID()
	authorID := models.NewID()

	t.Run("creates an unscored answer", func(t *testing.T) {
		t.Parallel()
		questions := noopQuestionRepo()
		var bumped string
		questions.incrementAnswersFn = func(_ context.Context, id string, delta int) error {
			assert.Equal(t, 1, delta)
			bumped = id
			return nil
		}
		users := noopUserRepo()
		var counted [2]int
		users.incrementCountersFn = func(_ context.Context, _ string, q, a int) error {
			counted = [2]int{q, a}
			return nil
		}
		events := &eventRecorder{}
		notifier := &notifierStub{configured: true}
		svc := NewAnswerService(questions, noopAnswerRepo(), users, events, notifier, nil, Inline)

		answer, err := svc.CreateAnswer(ctx, CreateAnswerInput{UserID: authorID, QuestionID: questionID, Content: " Use a buffer. "})
		require.NoError(t, err)
		assert.Equal(t, "Use a buffer.", answer.Content)
		assert.Equal(t, models.DefaultQualityScore, answer.QualityScore)
		assert.Equal(t, questionID, answer.QuestionID)
		assert.Equal(t, questionID, bumped)
		assert.Equal(t, [2]int{0, 1}, counted)
		assert.Equal(t, []string{notifications.EventAnswerCreated}, events.types())
		assert.Equal(t, []string{answer.ID}, notifier.answers)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := NewAnswerService(noopQuestionRepo(), noopAnswerRepo(), noopUserRepo(), nil, nil, nil, Inline)
		_, err := svc.CreateAnswer(ctx, CreateAnswerInput{UserID: authorID, QuestionID: questionID, Content: "  "})
		assertValidationError(t, err)
		assert.Equal(t, "Content is required", err.Error())
	})

	t.Run("unknown question", func(t *testing.T) {
		t.Parallel()
		questions := noopQuestionRepo()
		questions.getByIDFn = func(context.Context, string) (*models.Question, error) {
			return nil, models.NewNotFoundMessage(repository.QuestionNotFound)
		}
		answers := noopAnswerRepo()
		answers.createFn = func(context.Context, *models.Answer) error {
			t.Fatal("unexpected create")
			return nil
		}
		svc := NewAnswerService(questions, answers, noopUserRepo(), nil, nil, nil, Inline)

		_, err := svc.CreateAnswer(ctx, CreateAnswerInput{UserID: authorID, QuestionID: questionID, Content: "hi"})
		assertCode(t, err, models.CodeNotFound)
		assert.Equal(t, repository.QuestionNotFound, err.Error())

		_, err = svc.CreateAnswer(ctx, CreateAnswerInput{UserID: authorID, QuestionID: "42", Content: "hi"})
		assertCode(t, err, models.CodeNotFound)
	})
}
