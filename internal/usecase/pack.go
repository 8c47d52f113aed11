package usecase

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"docshelf/internal/domain"
)

// ContextPacker fits ranked passages into a character budget for prompt
// assembly. Selection is greedy by utility, score per character, so a
// tight budget prefers short high-value passages. Passages from the same
// document that touch or overlap are merged into one source block with
// the overlap deduplicated.
type ContextPacker struct{}

func NewContextPacker() *ContextPacker {
	return &ContextPacker{}
}

func (p *ContextPacker) Pack(query string, passages []domain.RankedPassage, budget int) (domain.PackedContext, error) {
	if budget <= 0 {
		return domain.PackedContext{}, fmt.Errorf("%w: pack budget %d must be positive", domain.ErrInvalidConfig, budget)
	}

	packed := domain.PackedContext{
		Query:       query,
		BudgetChars: budget,
		Sources:     []domain.PackedSource{},
	}
	if len(passages) == 0 {
		return packed, nil
	}

	type costed struct {
		passage domain.RankedPassage
		utility float64
		chars   int
	}
	ranked := make([]costed, 0, len(passages))
	for _, ps := range passages {
		chars := utf8.RuneCountInString(ps.Chunk.Text)
		if chars == 0 {
			continue
		}
		ranked = append(ranked, costed{
			passage: ps,
			utility: ps.Score / float64(chars),
			chars:   chars,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].utility > ranked[j].utility
	})

	var selected []domain.RankedPassage
	used := 0
	for _, rc := range ranked {
		if used+rc.chars > budget {
			continue
		}
		selected = append(selected, rc.passage)
		used += rc.chars
	}

	// Merging only removes duplicated overlap, so the budget still holds.
	merged := mergePassages(selected)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].Document.ID != merged[j].Document.ID {
			return merged[i].Document.ID < merged[j].Document.ID
		}
		return merged[i].Chunk.StartOffset < merged[j].Chunk.StartOffset
	})

	used = 0
	for _, ps := range merged {
		packed.Sources = append(packed.Sources, domain.PackedSource{
			DocID: ps.Document.ID,
			Title: ps.Document.Title,
			Range: fmt.Sprintf("chars %d-%d", ps.Chunk.StartOffset, ps.Chunk.EndOffset),
			Score: ps.Score,
			Text:  ps.Chunk.Text,
		})
		used += utf8.RuneCountInString(ps.Chunk.Text)
	}
	packed.UsedChars = used

	return packed, nil
}

// mergePassages joins same-document passages whose offset ranges touch
// or overlap. Offsets are byte positions in the source document and chunk
// cuts land on rune boundaries, so the continuation past the overlap is a
// plain byte slice of the next passage's text.
func mergePassages(passages []domain.RankedPassage) []domain.RankedPassage {
	if len(passages) <= 1 {
		return passages
	}

	byDoc := make(map[string][]domain.RankedPassage)
	for _, ps := range passages {
		byDoc[ps.Document.ID] = append(byDoc[ps.Document.ID], ps)
	}

	docIDs := make([]string, 0, len(byDoc))
	for id := range byDoc {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	result := make([]domain.RankedPassage, 0, len(passages))
	for _, docID := range docIDs {
		group := byDoc[docID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Chunk.StartOffset < group[j].Chunk.StartOffset
		})

		current := group[0]
		for _, next := range group[1:] {
			if next.Chunk.StartOffset > current.Chunk.EndOffset {
				result = append(result, current)
				current = next
				continue
			}

			if next.Chunk.EndOffset > current.Chunk.EndOffset {
				overlap := current.Chunk.EndOffset - next.Chunk.StartOffset
				current.Chunk.Text += next.Chunk.Text[overlap:]
				current.Chunk.EndOffset = next.Chunk.EndOffset
			}
			if next.Score > current.Score {
				current.Score = next.Score
			}
		}
		result = append(result, current)
	}

	return result
}
