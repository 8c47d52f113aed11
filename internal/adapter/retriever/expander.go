package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docshelf/internal/port"
)

// QueryExpander rewrites a search query into a handful of variants before
// retrieval. With an LLM attached it asks for paraphrases; without one it
// falls back to a fixed abbreviation table. Expansion never fails: any
// error returns the original query alone.
type QueryExpander struct {
	llm port.LLM
}

func NewQueryExpander(llm port.LLM) *QueryExpander {
	return &QueryExpander{llm: llm}
}

func (e *QueryExpander) Expand(ctx context.Context, query string) []string {
	if e.llm == nil {
		return e.expandWithKeywords(query)
	}

	systemPrompt := `You are a search query expansion assistant for a personal document library.
Given a user's search query, generate 2-3 alternative queries that might surface relevant passages.
Focus on:
- Synonyms and related everyday terms
- Different phrasings of the same question
- Words likely to appear verbatim in notes, reports, or articles

Output ONLY the alternative queries, one per line. Do not include explanations or numbering.`

	userPrompt := fmt.Sprintf("Original query: %s\n\nGenerate alternative search queries:", query)

	response, err := e.llm.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return []string{query}
	}

	queries := []string{query}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, ":") {
			continue
		}

		line = strings.TrimLeft(line, "0123456789. ")
		if line != "" && line != query {
			queries = append(queries, line)
		}
	}

	if len(queries) > 4 {
		queries = queries[:4]
	}

	return queries
}

// expandWithKeywords substitutes common abbreviations for the longhand
// forms people actually write in documents.
func (e *QueryExpander) expandWithKeywords(query string) []string {
	expansions := map[string][]string{
		"addr":   {"address", "location"},
		"appt":   {"appointment", "meeting"},
		"approx": {"approximately", "estimated"},
		"acct":   {"account", "billing"},
		"dept":   {"department", "division"},
		"doc":    {"document", "file"},
		"info":   {"information", "details"},
		"intro":  {"introduction", "overview"},
		"mgmt":   {"management", "administration"},
		"pic":    {"picture", "image", "photo"},
		"qty":    {"quantity", "amount"},
	}

	abbrevs := make([]string, 0, len(expansions))
	for abbrev := range expansions {
		abbrevs = append(abbrevs, abbrev)
	}
	sort.Strings(abbrevs)

	queries := []string{query}
	lowerQuery := strings.ToLower(query)
	for _, abbrev := range abbrevs {
		if !strings.Contains(lowerQuery, abbrev) {
			continue
		}
		for _, syn := range expansions[abbrev] {
			expanded := strings.ReplaceAll(lowerQuery, abbrev, syn)
			if expanded != lowerQuery {
				queries = append(queries, expanded)
			}
		}
	}

	if len(queries) > 5 {
		queries = queries[:5]
	}

	return queries
}
