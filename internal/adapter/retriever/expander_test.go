package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) ModelName() string { return "stub" }

func TestExpandWithoutLLMUsesKeywordTable(t *testing.T) {
	expander := NewQueryExpander(nil)

	queries := expander.Expand(context.Background(), "dept budget")
	assert.Equal(t, []string{"dept budget", "department budget", "division budget"}, queries)

	queries = expander.Expand(context.Background(), "weather tomorrow")
	assert.Equal(t, []string{"weather tomorrow"}, queries)
}

func TestExpandParsesLLMResponse(t *testing.T) {
	expander := NewQueryExpander(&stubLLM{
		response: "mortgage interest rates\n2. home loan percentage\n\nNote: these are variants\nhousing credit cost",
	})

	queries := expander.Expand(context.Background(), "mortgage rates")
	require.Len(t, queries, 4)
	assert.Equal(t, "mortgage rates", queries[0])
	assert.Equal(t, "mortgage interest rates", queries[1])
	assert.Equal(t, "home loan percentage", queries[2])
	assert.Equal(t, "housing credit cost", queries[3])
}

func TestExpandFallsBackOnLLMError(t *testing.T) {
	expander := NewQueryExpander(&stubLLM{err: errors.New("rate limited")})

	queries := expander.Expand(context.Background(), "insurance claim")
	assert.Equal(t, []string{"insurance claim"}, queries)
}

func TestExpandCapsVariantCount(t *testing.T) {
	expander := NewQueryExpander(&stubLLM{
		response: "one variant\ntwo variant\nthree variant\nfour variant\nfive variant",
	})

	queries := expander.Expand(context.Background(), "original")
	assert.Len(t, queries, 4)
}
