// Package integrations holds the outbound clients for Slack, S3 and CloudWatch.
// Every client degrades to a no-op that reports false when it is not configured.
package integrations

import (
	"context"
	"fmt"
	"log/slog"

	"askaway/internal/models"
	"askaway/internal/observability"

	"github.com/slack-go/slack"
)

const excerptLength = 200

// messagePoster is the subset of *slack.Client used here.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackConfig configures the Slack notifier.
type SlackConfig struct {
	BotToken     string
	Channel      string
	StatsChannel string
	FrontendURL  string
}

// Slack posts platform notifications to Slack channels.
type Slack struct {
	client messagePoster
	cfg    SlackConfig
}

// NewSlack returns a notifier; without a bot token every send is skipped.
func NewSlack(cfg SlackConfig) *Slack {
	s := &Slack{cfg: cfg}
	if cfg.BotToken != "" {
		s.client = slack.New(cfg.BotToken)
	}
	return s
}

// Configured reports whether a bot token was provided.
func (s *Slack) Configured() bool {
	return s != nil && s.client != nil
}

// Send posts text (and optional blocks) to channel and reports success.
func (s *Slack) Send(ctx context.Context, channel, text string, blocks ...slack.Block) bool {
	if !s.Configured() {
		slog.WarnContext(ctx, "Slack client not configured")
		observability.IntegrationSendsTotal.WithLabelValues("slack", observability.OutcomeSkipped).Inc()
		return false
	}

	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "slack", "chat.postMessage")
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	_, _, err := s.client.PostMessageContext(ctx, channel, opts...)
	observability.EndSpan(span, err)
	if err != nil {
		slog.ErrorContext(ctx, "Slack notification failed", "channel", channel, "error", err)
		observability.IntegrationSendsTotal.WithLabelValues("slack", observability.OutcomeFailure).Inc()
		return false
	}
	observability.IntegrationSendsTotal.WithLabelValues("slack", observability.OutcomeSuccess).Inc()
	return true
}

// NotifyNewQuestion announces a question in the platform channel.
func (s *Slack) NotifyNewQuestion(ctx context.Context, q *models.Question, author *models.User) bool {
	if !s.Configured() {
		return false
	}
	blocks := s.postBlocks(
		fmt.Sprintf("🆕 *New Question Posted*\n\n*%s*\n\n%s", q.Title, excerpt(q.Content)),
		"Asked by "+byline(author),
		"View Question",
		q.ID,
	)
	return s.Send(ctx, s.cfg.Channel, "New question: "+q.Title, blocks...)
}

// NotifyNewAnswer announces an answer in the platform channel.
func (s *Slack) NotifyNewAnswer(ctx context.Context, q *models.Question, a *models.Answer, author *models.User) bool {
	if !s.Configured() {
		return false
	}
	blocks := s.postBlocks(
		fmt.Sprintf("💬 *New Answer Posted*\n\nFor question: *%s*\n\n%s", q.Title, excerpt(a.Content)),
		"Answered by "+byline(author),
		"View Answer",
		q.ID,
	)
	return s.Send(ctx, s.cfg.Channel, "New answer for: "+q.Title, blocks...)
}

// SendDailySummary posts the activity counters to the stats channel.
func (s *Slack) SendDailySummary(ctx context.Context, activity *models.DailyActivity) bool {
	if !s.Configured() {
		return false
	}
	return s.Send(ctx, s.cfg.StatsChannel, "Daily platform summary", DailySummaryBlocks(activity)...)
}

func (s *Slack) postBlocks(body, footer, buttonLabel, questionID string) []slack.Block {
	button := slack.NewButtonBlockElement("", "", slack.NewTextBlockObject(slack.PlainTextType, buttonLabel, false, false))
	button.URL = s.cfg.FrontendURL + "/question/" + questionID

	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, footer, false, false)),
		slack.NewActionBlock("", button),
	}
}

// DailySummaryBlocks renders the header and the four counter fields.
func DailySummaryBlocks(activity *models.DailyActivity) []slack.Block {
	field := func(label string, value int64) *slack.TextBlockObject {
		return slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s:*\n%d", label, value), false, false)
	}
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "📊 Daily Q&A Platform Summary", false, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			field("New Questions", activity.NewQuestions),
			field("New Answers", activity.NewAnswers),
			field("Active Users", activity.ActiveUsers),
			field("Total Views", activity.TotalViews),
		}, nil),
	}
}

func byline(u *models.User) string {
	if u == nil {
		return "unknown user"
	}
	return fmt.Sprintf("%s %s (@%s)", u.FirstName, u.LastName, u.Username)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLength {
		return s
	}
	return string(r[:excerptLength]) + "..."
}
