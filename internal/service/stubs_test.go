package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"askaway/internal/ai"
	"askaway/internal/integrations"
	"askaway/internal/models"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, string) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	getByGoogleIDFn     func(context.Context, string) (*models.User, error)
	createFn            func(context.Context, *models.User) error
	updateFn            func(context.Context, *models.User) error
	deleteFn            func(context.Context, string) error
	incrementCountersFn func(context.Context, string, int, int) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getByGoogleIDFn(ctx, googleID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) IncrementCounters(ctx context.Context, id string, questions, answers int) error {
	return s.incrementCountersFn(ctx, id, questions, answers)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, FirstName: "Alice", LastName: "Smith", Username: "alice"}, nil
		},
		getByEmailFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:     func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByGoogleIDFn:     func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:            func(_ context.Context, u *models.User) error { u.ID = models.NewID(); return nil },
		updateFn:            func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:            func(_ context.Context, _ string) error { return nil },
		incrementCountersFn: func(_ context.Context, _ string, _, _ int) error { return nil },
	}
}

// questionRepoStub is a stub for repository.QuestionRepository.
type questionRepoStub struct {
	createFn           func(context.Context, *models.Question) error
	getByIDFn          func(context.Context, string) (*models.Question, error)
	listFn             func(context.Context, int, int) ([]models.Question, error)
	searchFn           func(context.Context, []string, int) ([]models.Question, error)
	recordViewFn       func(context.Context, *models.QuestionView) error
	incrementAnswersFn func(context.Context, string, int) error
	setSummaryFn       func(context.Context, string, string) error
}

func (s *questionRepoStub) Create(ctx context.Context, q *models.Question) error {
	return s.createFn(ctx, q)
}
func (s *questionRepoStub) GetByID(ctx context.Context, id string) (*models.Question, error) {
	return s.getByIDFn(ctx, id)
}
func (s *questionRepoStub) List(ctx context.Context, skip, limit int) ([]models.Question, error) {
	return s.listFn(ctx, skip, limit)
}
func (s *questionRepoStub) Search(ctx context.Context, terms []string, limit int) ([]models.Question, error) {
	return s.searchFn(ctx, terms, limit)
}
func (s *questionRepoStub) RecordView(ctx context.Context, view *models.QuestionView) error {
	return s.recordViewFn(ctx, view)
}
func (s *questionRepoStub) IncrementAnswers(ctx context.Context, id string, delta int) error {
	return s.incrementAnswersFn(ctx, id, delta)
}
func (s *questionRepoStub) SetSummary(ctx context.Context, id, summary string) error {
	return s.setSummaryFn(ctx, id, summary)
}

func noopQuestionRepo() *questionRepoStub {
	return &questionRepoStub{
		createFn: func(_ context.Context, q *models.Question) error { q.ID = models.NewID(); return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Question, error) {
			return &models.Question{ID: id, Title: "How do channels work?", Content: "Explain buffering."}, nil
		},
		listFn:             func(_ context.Context, _, _ int) ([]models.Question, error) { return nil, nil },
		searchFn:           func(_ context.Context, _ []string, _ int) ([]models.Question, error) { return nil, nil },
		recordViewFn:       func(_ context.Context, _ *models.QuestionView) error { return nil },
		incrementAnswersFn: func(_ context.Context, _ string, _ int) error { return nil },
		setSummaryFn:       func(_ context.Context, _, _ string) error { return nil },
	}
}

// answerRepoStub is a stub for repository.AnswerRepository.
type answerRepoStub struct {
	createFn          func(context.Context, *models.Answer) error
	getByIDFn         func(context.Context, string) (*models.Answer, error)
	listByQuestionFn  func(context.Context, string, int) ([]models.Answer, error)
	setQualityScoreFn func(context.Context, string, int) error
	incrementStarsFn  func(context.Context, string, int) error
}

func (s *answerRepoStub) Create(ctx context.Context, a *models.Answer) error {
	return s.createFn(ctx, a)
}
func (s *answerRepoStub) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	return s.getByIDFn(ctx, id)
}
func (s *answerRepoStub) ListByQuestion(ctx context.Context, questionID string, limit int) ([]models.Answer, error) {
	return s.listByQuestionFn(ctx, questionID, limit)
}
func (s *answerRepoStub) SetQualityScore(ctx context.Context, id string, score int) error {
	return s.setQualityScoreFn(ctx, id, score)
}
func (s *answerRepoStub) IncrementStars(ctx context.Context, id string, delta int) error {
	return s.incrementStarsFn(ctx, id, delta)
}

func noopAnswerRepo() *answerRepoStub {
	return &answerRepoStub{
		createFn: func(_ context.Context, a *models.Answer) error { a.ID = models.NewID(); return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Answer, error) {
			return &models.Answer{ID: id, QuestionID: models.NewID(), Content: "Use a buffer.", QualityScore: models.DefaultQualityScore}, nil
		},
		listByQuestionFn:  func(_ context.Context, _ string, _ int) ([]models.Answer, error) { return nil, nil },
		setQualityScoreFn: func(_ context.Context, _ string, _ int) error { return nil },
		incrementStarsFn:  func(_ context.Context, _ string, _ int) error { return nil },
	}
}

// starRepoStub is a stub for repository.StarRepository.
type starRepoStub struct {
	createFn     func(context.Context, *models.Star) error
	deleteFn     func(context.Context, string, string) (bool, error)
	listByUserFn func(context.Context, string, int) ([]models.Star, error)
}

func (s *starRepoStub) Create(ctx context.Context, star *models.Star) error {
	return s.createFn(ctx, star)
}
func (s *starRepoStub) Delete(ctx context.Context, userID, answerID string) (bool, error) {
	return s.deleteFn(ctx, userID, answerID)
}
func (s *starRepoStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.Star, error) {
	return s.listByUserFn(ctx, userID, limit)
}

func noopStarRepo() *starRepoStub {
	return &starRepoStub{
		createFn:     func(_ context.Context, s *models.Star) error { s.ID = models.NewID(); return nil },
		deleteFn:     func(_ context.Context, _, _ string) (bool, error) { return true, nil },
		listByUserFn: func(_ context.Context, _ string, _ int) ([]models.Star, error) { return nil, nil },
	}
}

// statsRepoStub is a stub for repository.StatsRepository.
type statsRepoStub struct {
	platformFn func(context.Context) (*models.PlatformStats, error)
	activityFn func(context.Context, models.TimeWindow) (*models.DailyActivity, error)
	userFn     func(context.Context, string) (*models.UserStats, error)
	aiFn       func(context.Context) (*models.AIStats, error)
}

func (s *statsRepoStub) Platform(ctx context.Context) (*models.PlatformStats, error) {
	return s.platformFn(ctx)
}
func (s *statsRepoStub) Activity(ctx context.Context, w models.TimeWindow) (*models.DailyActivity, error) {
	return s.activityFn(ctx, w)
}
func (s *statsRepoStub) User(ctx context.Context, userID string) (*models.UserStats, error) {
	return s.userFn(ctx, userID)
}
func (s *statsRepoStub) AI(ctx context.Context) (*models.AIStats, error) {
	return s.aiFn(ctx)
}

func noopStatsRepo() *statsRepoStub {
	return &statsRepoStub{
		platformFn: func(_ context.Context) (*models.PlatformStats, error) { return &models.PlatformStats{}, nil },
		activityFn: func(_ context.Context, _ models.TimeWindow) (*models.DailyActivity, error) {
			return &models.DailyActivity{}, nil
		},
		userFn: func(_ context.Context, _ string) (*models.UserStats, error) { return &models.UserStats{}, nil },
		aiFn:   func(_ context.Context) (*models.AIStats, error) { return &models.AIStats{}, nil },
	}
}

type publishedEvent struct {
	Type    string
	Payload any
}

// eventRecorder captures live feed events.
type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (r *eventRecorder) PublishEvent(_ context.Context, eventType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Type: eventType, Payload: payload})
	return r.err
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// notifierStub records Slack content notifications.
type notifierStub struct {
	configured bool
	questions  []string
	answers    []string
}

func (n *notifierStub) Configured() bool { return n.configured }
func (n *notifierStub) NotifyNewQuestion(_ context.Context, q *models.Question, _ *models.User) bool {
	n.questions = append(n.questions, q.ID)
	return true
}
func (n *notifierStub) NotifyNewAnswer(_ context.Context, _ *models.Question, a *models.Answer, _ *models.User) bool {
	n.answers = append(n.answers, a.ID)
	return true
}

// slackStub is a stub for SlackSender.
type slackStub struct {
	configured bool
	sendFn     func(ctx context.Context, channel, text string) bool
	summaries  []*models.DailyActivity
}

func (s *slackStub) Configured() bool { return s.configured }
func (s *slackStub) Send(ctx context.Context, channel, text string, _ ...slack.Block) bool {
	if s.sendFn == nil {
		return s.configured
	}
	return s.sendFn(ctx, channel, text)
}
func (s *slackStub) SendDailySummary(_ context.Context, activity *models.DailyActivity) bool {
	s.summaries = append(s.summaries, activity)
	return s.configured
}

// cloudStub is a stub for CloudStore.
type cloudStub struct {
	s3, cw  bool
	backups map[string]any
	metrics [][]integrations.Metric
}

func (c *cloudStub) S3Configured() bool         { return c.s3 }
func (c *cloudStub) CloudWatchConfigured() bool { return c.cw }
func (c *cloudStub) Backup(_ context.Context, key string, payload any) bool {
	if c.backups == nil {
		c.backups = make(map[string]any)
	}
	c.backups[key] = payload
	return c.s3
}
func (c *cloudStub) SendMetrics(_ context.Context, metrics []integrations.Metric) bool {
	c.metrics = append(c.metrics, metrics)
	return c.cw
}

// generatorStub is a stub for ai.Generator.
type generatorStub struct {
	reply string
	err   error
	calls int
}

func (g *generatorStub) Generate(_ context.Context, _ ai.Request) (string, error) {
	g.calls++
	return g.reply, g.err
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
