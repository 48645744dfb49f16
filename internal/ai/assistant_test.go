package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorStub struct {
	generateFn func(context.Context, Request) (string, error)
	requests   []Request
}

func (g *generatorStub) Generate(ctx context.Context, req Request) (string, error) {
	g.requests = append(g.requests, req)
	return g.generateFn(ctx, req)
}

func replying(text string, err error) *generatorStub {
	return &generatorStub{generateFn: func(context.Context, Request) (string, error) { return text, err }}
}

func TestAssistant_Disabled(t *testing.T) {
	t.Parallel()
	a := NewAssistant(nil)
	ctx := context.Background()

	assert.False(t, a.Enabled())
	assert.Equal(t, SummaryNotConfigured, a.Summarize(ctx, "t", "c", nil))
	assert.Equal(t, []string{}, a.SuggestTags(ctx, "t", "c"))
	assert.Equal(t, NeutralScore, a.ScoreAnswer(ctx, "a", "q"))
}

func TestAssistant_GeneratorFailure(t *testing.T) {
	t.Parallel()
	a := NewAssistant(replying("", errors.New("quota exceeded")))
	ctx := context.Background()

	assert.Equal(t, SummaryFailed, a.Summarize(ctx, "t", "c", nil))
	assert.Equal(t, []string{}, a.SuggestTags(ctx, "t", "c"))
	assert.Equal(t, NeutralScore, a.ScoreAnswer(ctx, "a", "q"))
}

func TestAssistant_Summarize(t *testing.T) {
	t.Parallel()
	gen := replying("Use channels.", nil)
	a := NewAssistant(gen)

	got := a.Summarize(context.Background(), "Title", "Body", []string{"one", "two"})
	assert.Equal(t, "Use channels.", got)
	require.Len(t, gen.requests, 1)
	assert.Contains(t, gen.requests[0].Prompt, "Question: Title\n\nDetails: Body")
	assert.Contains(t, gen.requests[0].Prompt, "2. two...")
	assert.EqualValues(t, 200, gen.requests[0].MaxTokens)
}

func TestSummaryContext(t *testing.T) {
	t.Parallel()

	t.Run("at most three answers, each truncated", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 600)
		ctx := SummaryContext("T", "C", []string{long, "b", "c", "d"})
		assert.Contains(t, ctx, "1. "+strings.Repeat("a", 500)+"...\n")
		assert.Contains(t, ctx, "3. c...")
		assert.NotContains(t, ctx, "4. d")
	})

	t.Run("whole context capped", func(t *testing.T) {
		t.Parallel()
		ctx := SummaryContext("T", strings.Repeat("x", 5000), nil)
		assert.Len(t, ctx, 3003)
		assert.True(t, strings.HasSuffix(ctx, "..."))
	})
}

func TestParseTags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		reply string
		want  []string
	}{
		{"Go, Concurrency ,channels", []string{"go", "concurrency", "channels"}},
		{"a,,b, ,c", []string{"a", "b", "c"}},
		{"a,b,c,d,e,f,g", []string{"a", "b", "c", "d", "e"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTags(tt.reply), tt.reply)
	}
}

func TestParseScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		reply string
		want  float64
	}{
		{"0.82", 0.82},
		{" 1 ", 1},
		{"1.7", 1},
		{"-0.3", 0},
		{"great answer", NeutralScore},
		{"NaN", NeutralScore},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseScore(tt.reply), tt.reply)
	}
}
