package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"askaway/internal/observability"
)

// Fallback results returned when no generator is configured or a call fails.
const (
	SummaryNotConfigured = "AI summarization not configured"
	SummaryFailed        = "Summary generation failed"
	NeutralScore         = 0.5
)

const (
	maxAnswersInSummary  = 3
	maxAnswerExcerpt     = 500
	maxSummaryContext    = 3000
	maxTagText           = 2000
	maxSuggestedTags     = 5
	maxScoreQuestionText = 500
	maxScoreAnswerText   = 1000
)

// Assistant builds prompts for the Q&A features and degrades to fixed
// fallbacks instead of failing requests.
type Assistant struct {
	gen Generator
}

// NewAssistant returns an Assistant. A nil generator disables every feature.
func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

// Enabled reports whether a generator is configured.
func (a *Assistant) Enabled() bool {
	return a != nil && a.gen != nil
}

func (a *Assistant) generate(ctx context.Context, operation string, req Request) (string, error) {
	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "gemini", operation)
	start := time.Now()
	text, err := a.gen.Generate(ctx, req)
	observability.RecordAICall(operation, err, start)
	observability.EndSpan(span, err)
	if err != nil {
		slog.ErrorContext(ctx, "AI call failed", "operation", operation, "error", err)
	}
	return text, err
}

// SummaryContext renders the question and up to three answers into the
// prompt context.
func SummaryContext(title, content string, answers []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nDetails: %s", title, content)
	if len(answers) > 0 {
		b.WriteString("\n\nAnswers:\n")
		for i, answer := range answers {
			if i == maxAnswersInSummary {
				break
			}
			fmt.Fprintf(&b, "%d. %s...\n", i+1, truncate(answer, maxAnswerExcerpt))
		}
	}
	text := b.String()
	if len([]rune(text)) > maxSummaryContext {
		text = truncate(text, maxSummaryContext) + "..."
	}
	return text
}

// Summarize produces a short summary of a question thread.
func (a *Assistant) Summarize(ctx context.Context, title, content string, answers []string) string {
	if !a.Enabled() {
		return SummaryNotConfigured
	}
	text, err := a.generate(ctx, "summarize", Request{
		System:      "You are a helpful assistant that summarizes Q&A discussions. Provide a concise, informative summary that captures the key points of the question and any provided answers.",
		Prompt:      "Please summarize this Q&A discussion:\n\n" + SummaryContext(title, content, answers),
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		return SummaryFailed
	}
	return text
}

// SuggestTags proposes up to five lowercase tags for a question.
func (a *Assistant) SuggestTags(ctx context.Context, title, content string) []string {
	if !a.Enabled() {
		return []string{}
	}
	text := title + "\n" + content
	if len([]rune(text)) > maxTagText {
		text = truncate(text, maxTagText) + "..."
	}
	reply, err := a.generate(ctx, "suggest_tags", Request{
		System:      "You are a helpful assistant that suggests relevant tags for programming and technical questions. Return only a comma-separated list of 3-5 relevant tags, no explanations.",
		Prompt:      "Suggest relevant tags for this question:\n\n" + text,
		MaxTokens:   50,
		Temperature: 0.2,
	})
	if err != nil {
		return []string{}
	}
	return ParseTags(reply)
}

// ParseTags splits a comma separated model reply into clean tags.
func ParseTags(reply string) []string {
	tags := []string{}
	for _, raw := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxSuggestedTags {
			break
		}
	}
	return tags
}

// ScoreAnswer rates an answer between 0 and 1.
func (a *Assistant) ScoreAnswer(ctx context.Context, answer, questionContext string) float64 {
	if !a.Enabled() {
		return NeutralScore
	}
	reply, err := a.generate(ctx, "quality_score", Request{
		System: "You are an expert at evaluating answer quality. Rate the answer on a scale of 0-1 based on accuracy, completeness, clarity, and helpfulness. Return only a number between 0 and 1.",
		Prompt: fmt.Sprintf("Question context: %s\n\nAnswer to evaluate: %s\n\nQuality score (0-1):",
			truncate(questionContext, maxScoreQuestionText), truncate(answer, maxScoreAnswerText)),
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		return NeutralScore
	}
	return ParseScore(reply)
}

// ParseScore reads a 0..1 score, clamping out of range values.
func ParseScore(reply string) float64 {
	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil || math.IsNaN(score) {
		return NeutralScore
	}
	return max(0, min(1, score))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
