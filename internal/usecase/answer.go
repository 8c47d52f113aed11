package usecase

import (
	"context"
	"fmt"
	"strings"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// DefaultPromptBudget is the source-material character budget per prompt.
const DefaultPromptBudget = 6000

const answerSystemPrompt = `You are a careful assistant answering questions from a personal document library.
Ground every statement in the numbered sources provided. Cite sources inline as [1], [2] and so on.
If the sources do not contain the answer, say so plainly instead of guessing.`

// Answerer composes an answer from retrieved passages. Meta queries are
// answered from library metadata without touching the model; without a
// configured model the packed passages are returned verbatim.
type Answerer struct {
	library *Library
	packer  port.Packer
	llm     port.LLM
	budget  int
}

func NewAnswerer(library *Library, packer port.Packer, llm port.LLM, promptBudget int) *Answerer {
	if promptBudget <= 0 {
		promptBudget = DefaultPromptBudget
	}
	return &Answerer{
		library: library,
		packer:  packer,
		llm:     llm,
		budget:  promptBudget,
	}
}

func (a *Answerer) Generate(ctx context.Context, query string, passages []domain.RankedPassage, c domain.QueryClassification) (string, error) {
	if c.Intent == domain.IntentMeta {
		return a.describeLibrary(), nil
	}
	if len(passages) == 0 {
		return "No matching passages were found in the library.", nil
	}

	packed, err := a.packer.Pack(query, passages, a.budget)
	if err != nil {
		return "", err
	}

	if a.llm == nil {
		return extractiveAnswer(packed), nil
	}

	answer, err := a.llm.GenerateWithSystem(ctx, answerSystemPrompt, buildAnswerPrompt(packed))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

func (a *Answerer) describeLibrary() string {
	docs := a.library.Documents()
	if len(docs) == 0 {
		return "The library is empty."
	}

	var b strings.Builder
	noun := "documents"
	if len(docs) == 1 {
		noun = "document"
	}
	fmt.Fprintf(&b, "The library holds %d %s:\n", len(docs), noun)
	for _, doc := range docs {
		rec, err := a.library.Record(doc.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s, %d passages)\n", doc.Title, doc.ID, len(rec.Chunks))
	}
	return strings.TrimRight(b.String(), "\n")
}

// extractiveAnswer lists the packed passages with their provenance. It is
// the answer path when no generation model is configured.
func extractiveAnswer(packed domain.PackedContext) string {
	var b strings.Builder
	b.WriteString("Most relevant passages:\n\n")
	for i, src := range packed.Sources {
		fmt.Fprintf(&b, "[%d] %s (%s, score %.2f)\n%s\n\n", i+1, src.Title, src.Range, src.Score, src.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildAnswerPrompt(packed domain.PackedContext) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the sources below.\n\n")
	for i, src := range packed.Sources {
		fmt.Fprintf(&b, "**Source %d (Relevance: %.2f):** %s [%s]\n%s\n\n", i+1, src.Score, src.Title, src.Range, src.Text)
	}
	fmt.Fprintf(&b, "Question: %s\n", packed.Query)
	return b.String()
}
