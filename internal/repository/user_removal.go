package repository

import (
	"context"
	"sort"

	"askaway/internal/cache"
	"askaway/internal/models"
)

// userRemoval lists the rows that go with a deleted account and the counter
// corrections owed to the rows that stay.
//
// Removed answers are the user's own plus every answer under the user's
// questions. Removed stars are the user's own plus every star on a removed
// answer.
type userRemoval struct {
	userID      string
	questionIDs []string
	answerIDs   []string
	starIDs     []string

	// answersLost maps a surviving question to the answers it loses.
	answersLost map[string]int
	// starsLost maps a surviving answer to the stars it loses.
	starsLost map[string]int
	// authoredLost maps another user to the answers they lose under the
	// deleted questions.
	authoredLost map[string]int
}

func planUserRemoval(userID string, questionIDs []string, answers []models.Answer, stars []models.Star) *userRemoval {
	plan := &userRemoval{
		userID:       userID,
		questionIDs:  questionIDs,
		answersLost:  make(map[string]int),
		starsLost:    make(map[string]int),
		authoredLost: make(map[string]int),
	}

	removedQuestions := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		removedQuestions[id] = true
	}

	removedAnswers := make(map[string]bool, len(answers))
	for _, a := range answers {
		if removedAnswers[a.ID] {
			continue
		}
		removedAnswers[a.ID] = true
		plan.answerIDs = append(plan.answerIDs, a.ID)
		if !removedQuestions[a.QuestionID] {
			plan.answersLost[a.QuestionID]++
		}
		if a.UserID != userID {
			plan.authoredLost[a.UserID]++
		}
	}

	seenStars := make(map[string]bool, len(stars))
	for _, s := range stars {
		if seenStars[s.ID] {
			continue
		}
		seenStars[s.ID] = true
		plan.starIDs = append(plan.starIDs, s.ID)
		if !removedAnswers[s.AnswerID] {
			plan.starsLost[s.AnswerID]++
		}
	}
	return plan
}

// touchedUsers returns the other users whose counters changed, sorted.
func (p *userRemoval) touchedUsers() []string {
	ids := make([]string, 0, len(p.authoredLost))
	for id := range p.authoredLost {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// forget drops cached copies of every record the removal changed.
func (p *userRemoval) forget(ctx context.Context) {
	for _, id := range p.touchedUsers() {
		cache.InvalidateUser(ctx, id)
	}
	cache.InvalidateStats(ctx)
}
