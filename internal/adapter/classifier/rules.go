package classifier

import (
	"regexp"
	"strings"

	"docshelf/internal/domain"
)

// RuleClassifier assigns a retrieval intent to a query using an ordered
// rule table over lexical signals. No model calls, no state: the same
// query always classifies the same way, and classification never fails.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// intentRule defines a single classification rule. Any matcher firing
// triggers the rule.
type intentRule struct {
	name       string
	intent     domain.Intent
	confidence float64
	phrases    []string
	regexes    []*regexp.Regexp
	matchFn    func(query string) bool
}

// intentRules lists all rules in priority order. The first match decides
// the intent; later matches still land in MatchedSignals. Queries are
// lowercased and trimmed before matching.
var intentRules = []intentRule{
	{
		name:       "meta-inventory",
		intent:     domain.IntentMeta,
		confidence: 0.95,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`^(what|which)\s+(documents?|files?)\s+do\s+i\s+have\b`),
			regexp.MustCompile(`\bhow\s+many\s+(documents?|files?|chunks?|passages?)\b`),
			regexp.MustCompile(`^(list|show(\s+me)?|display)\s+(all\s+)?(my\s+|the\s+)?(documents?|files?)\s*\??$`),
		},
	},
	{
		name:       "meta-library",
		intent:     domain.IntentMeta,
		confidence: 0.9,
		phrases: []string{
			"my library",
			"library contents",
			"what's in the library",
			"whats in the library",
			"what is in the library",
			"library status",
			"index status",
		},
	},
	{
		name:       "quoted-phrase",
		intent:     domain.IntentLookup,
		confidence: 0.8,
		matchFn: func(query string) bool {
			return strings.Count(query, `"`) >= 2
		},
	},
	{
		name:       "definition-request",
		intent:     domain.IntentLookup,
		confidence: 0.7,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`^(define|definition\s+of|meaning\s+of)\s+\S`),
		},
	},
	{
		name:       "short-keyword-query",
		intent:     domain.IntentLookup,
		confidence: 0.75,
		matchFn: func(query string) bool {
			if strings.HasSuffix(query, "?") || interrogativeLead.MatchString(query) {
				return false
			}
			n := len(strings.Fields(query))
			return n >= 1 && n <= 3
		},
	},
}

var interrogativeLead = regexp.MustCompile(`^(what|how|why|when|where|who|which|can|could|does|do|did|is|are|was|were|should|would|will)\b`)

// Classify maps a query to an intent. Unmatched queries default to the
// broad exploratory intent.
func (c *RuleClassifier) Classify(query string) domain.QueryClassification {
	normalized := strings.ToLower(strings.TrimSpace(query))

	if normalized == "" {
		return domain.QueryClassification{
			Query:          query,
			Intent:         domain.IntentExploratory,
			Confidence:     1,
			MatchedSignals: []string{"empty-query"},
		}
	}

	result := domain.QueryClassification{
		Query:      query,
		Intent:     domain.IntentExploratory,
		Confidence: 0.5,
	}

	decided := false
	for i := range intentRules {
		rule := &intentRules[i]
		if !matchesRule(normalized, rule) {
			continue
		}
		result.MatchedSignals = append(result.MatchedSignals, rule.name)
		if !decided {
			result.Intent = rule.intent
			result.Confidence = rule.confidence
			decided = true
		}
	}

	if !decided {
		result.MatchedSignals = []string{"default-broad"}
	}

	return result
}

func matchesRule(query string, rule *intentRule) bool {
	for _, phrase := range rule.phrases {
		if strings.Contains(query, phrase) {
			return true
		}
	}

	for _, re := range rule.regexes {
		if re.MatchString(query) {
			return true
		}
	}

	if rule.matchFn != nil && rule.matchFn(query) {
		return true
	}

	return false
}
