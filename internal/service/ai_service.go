package service

import (
	"context"
	"strings"
	"time"

	"askaway/internal/ai"
	"askaway/internal/featureflags"
	"askaway/internal/models"
	"askaway/internal/repository"
)

// summaryAnswers is how many answers are loaded for a summary.
const summaryAnswers = 5

type AIService struct {
	assistant *ai.Assistant
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	stats     repository.StatsRepository
	flags     *featureflags.Manager
	now       func() time.Time
}

func NewAIService(
	assistant *ai.Assistant,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	stats repository.StatsRepository,
	flags *featureflags.Manager,
) *AIService {
	return &AIService{
		assistant: assistant,
		questions: questions,
		answers:   answers,
		stats:     stats,
		flags:     flags,
		now:       time.Now,
	}
}

// Enabled reports whether a generator is configured.
func (s *AIService) Enabled() bool {
	return s.assistant.Enabled()
}

type SummaryResult struct {
	QuestionID  string    `json:"question_id"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Summarize generates and stores a question summary. Generator problems are
// reported in the summary text, never as errors.
func (s *AIService) Summarize(ctx context.Context, questionID string) (*SummaryResult, error) {
	if !models.ValidID(questionID) {
		return nil, models.NewNotFoundMessage(repository.QuestionNotFound)
	}
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByQuestion(ctx, questionID, summaryAnswers)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(answers))
	for _, a := range answers {
		contents = append(contents, a.Content)
	}
	summary := s.assistant.Summarize(ctx, question.Title, question.Content, contents)
	if err := s.questions.SetSummary(ctx, question.ID, summary); err != nil {
		return nil, err
	}
	return &SummaryResult{
		QuestionID:  question.ID,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}, nil
}

type TagSuggestion struct {
	SuggestedTags []string `json:"suggested_tags"`
	Count         int      `json:"count"`
}

func (s *AIService) SuggestTags(ctx context.Context, title, content string) (*TagSuggestion, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, models.NewValidationError("title and content are required")
	}
	tags := s.assistant.SuggestTags(ctx, title, content)
	return &TagSuggestion{SuggestedTags: tags, Count: len(tags)}, nil
}

type QualityScore struct {
	AnswerID        string  `json:"answer_id"`
	QualityScore    int     `json:"quality_score"`
	ScoreNormalized float64 `json:"score_normalized"`
}

// QualityScore returns an answer's stored score, generating one first when
// the answer still has the default score.
func (s *AIService) QualityScore(ctx context.Context, userID, answerID string) (*QualityScore, error) {
	if !models.ValidID(answerID) {
		return nil, models.NewNotFoundMessage(repository.AnswerNotFound)
	}
	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	question, err := s.questions.GetByID(ctx, answer.QuestionID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage("Associated question not found")
		}
		return nil, err
	}

	score := answer.QualityScore
	if score == models.DefaultQualityScore && s.assistant.Enabled() &&
		s.flags.EnabledOr(featureflags.AIQualityScoring, userID, true) {
		normalized := s.assistant.ScoreAnswer(ctx, answer.Content, question.Title+"\n"+question.Content)
		score = int(normalized * 100)
		if score != answer.QualityScore {
			if err := s.answers.SetQualityScore(ctx, answer.ID, score); err != nil {
				return nil, err
			}
		}
	}

	return &QualityScore{
		AnswerID:        answer.ID,
		QualityScore:    score,
		ScoreNormalized: float64(score) / 100,
	}, nil
}

func (s *AIService) PlatformAnalytics(ctx context.Context) (*models.AIStats, error) {
	stats, err := s.stats.AI(ctx)
	if err != nil {
		return nil, err
	}
	stats.AIFeaturesEnabled = s.assistant.Enabled()
	return stats, nil
}
