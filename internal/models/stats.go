package models

import "time"

// PlatformStats are all-time totals.
type PlatformStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalQuestions int64 `json:"total_questions"`
	TotalAnswers   int64 `json:"total_answers"`
	TotalStars     int64 `json:"total_stars"`
	TotalViews     int64 `json:"total_views"`
}

// DailyActivity counts activity inside a time window.
type DailyActivity struct {
	Date         string `json:"date"`
	NewQuestions int64  `json:"new_questions"`
	NewAnswers   int64  `json:"new_answers"`
	ActiveUsers  int64  `json:"active_users"`
	TotalViews   int64  `json:"total_views"`
}

// UserStats summarizes one user's contributions.
type UserStats struct {
	QuestionsCount int   `json:"questions_count"`
	AnswersCount   int   `json:"answers_count"`
	StarsReceived  int64 `json:"stars_received"`
	StarsGiven     int64 `json:"stars_given"`
	TotalViews     int64 `json:"total_views"`
}

// AIStats describes how much of the content has AI annotations.
type AIStats struct {
	TotalQuestions           int64   `json:"total_questions"`
	TotalAnswers             int64   `json:"total_answers"`
	QuestionsWithAISummaries int64   `json:"questions_with_ai_summaries"`
	AISummaryCoverage        float64 `json:"ai_summary_coverage"`
	AverageQuestionQuality   float64 `json:"average_question_quality"`
	AverageAnswerQuality     float64 `json:"average_answer_quality"`
	AIFeaturesEnabled        bool    `json:"ai_features_enabled"`
}

// TimeWindow is a half-open [Start, End) interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// PreviousDay returns the UTC calendar day before now.
func PreviousDay(now time.Time) TimeWindow {
	today := now.UTC().Truncate(24 * time.Hour)
	return TimeWindow{Start: today.Add(-24 * time.Hour), End: today}
}
