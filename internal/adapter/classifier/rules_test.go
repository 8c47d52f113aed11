package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docshelf/internal/domain"
)

func TestClassifyIntents(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		query  string
		intent domain.Intent
		signal string
	}{
		{"what documents do I have?", domain.IntentMeta, "meta-inventory"},
		{"What documents do I have", domain.IntentMeta, "meta-inventory"},
		{"how many files are indexed", domain.IntentMeta, "meta-inventory"},
		{"list my documents", domain.IntentMeta, "meta-inventory"},
		{"show me the documents", domain.IntentMeta, "meta-inventory"},
		{"what's in the library", domain.IntentMeta, "meta-library"},
		{"library status", domain.IntentMeta, "meta-library"},

		{"mammals", domain.IntentLookup, "short-keyword-query"},
		{"solar panel efficiency", domain.IntentLookup, "short-keyword-query"},
		{`"exact phrase search"`, domain.IntentLookup, "quoted-phrase"},
		{"define photosynthesis", domain.IntentLookup, "definition-request"},
		{"meaning of amortization", domain.IntentLookup, "definition-request"},

		{"how do solar panels work?", domain.IntentExploratory, "default-broad"},
		{"tell me everything about the roman empire and its trade routes", domain.IntentExploratory, "default-broad"},
		{"why is the sky blue", domain.IntentExploratory, "default-broad"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := c.Classify(tt.query)
			assert.Equal(t, tt.intent, got.Intent, "query %q", tt.query)
			assert.Equal(t, tt.query, got.Query)
			assert.Contains(t, got.MatchedSignals, tt.signal)
			assert.Greater(t, got.Confidence, 0.0)
		})
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	c := NewRuleClassifier()

	got := c.Classify("   ")
	assert.Equal(t, domain.IntentExploratory, got.Intent)
	assert.Equal(t, []string{"empty-query"}, got.MatchedSignals)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewRuleClassifier()

	first := c.Classify("what documents do I have?")
	second := c.Classify("what documents do I have?")
	assert.Equal(t, first, second)
}

func TestClassifyContentQuestionAboutDocumentsIsNotMeta(t *testing.T) {
	c := NewRuleClassifier()

	// Mentions documents but asks about their contents, not the library.
	got := c.Classify("what do these documents say about taxes?")
	assert.Equal(t, domain.IntentExploratory, got.Intent)
}

func TestPolicyFor(t *testing.T) {
	lookup := PolicyFor(domain.IntentLookup)
	assert.Equal(t, 3, lookup.MaxTopK)
	assert.False(t, lookup.Bypass)
	assert.Equal(t, 2, lookup.Apply(2))
	assert.Equal(t, 3, lookup.Apply(10))

	meta := PolicyFor(domain.IntentMeta)
	assert.True(t, meta.Bypass)

	exploratory := PolicyFor(domain.IntentExploratory)
	assert.False(t, exploratory.Bypass)
	assert.True(t, exploratory.Diversify)
	assert.Equal(t, 10, exploratory.Apply(10))
}
