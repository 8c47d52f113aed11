package domain

type Document struct {
	ID          string
	Title       string
	ContentHash string
	Metadata    map[string]string
}

// Well-known metadata keys. The map is open; these are the ones the
// ingestion path fills in.
const (
	MetaSourcePath = "source_path"
	MetaSourceType = "source_type"
	MetaSizeKB     = "size_kb"
	MetaAddedAt    = "added_at"
	MetaModifiedAt = "modified_at"
)

type Chunk struct {
	ID          string
	DocID       string
	StartOffset int
	EndOffset   int
	Text        string

	// Derived from Text by the analyzer, never persisted.
	TermFreqs  map[string]int
	TokenCount int
}

// LibraryRecord is the persisted unit: one document plus its ordered chunks.
type LibraryRecord struct {
	Document Document
	Chunks   []Chunk
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

type RankedPassage struct {
	Chunk    Chunk
	Document Document
	Score    float64
}

type Intent string

const (
	IntentLookup      Intent = "lookup"
	IntentExploratory Intent = "exploratory"
	IntentMeta        Intent = "meta"
)

type QueryClassification struct {
	Query          string
	Intent         Intent
	Confidence     float64
	MatchedSignals []string
}

type RetrievalResult struct {
	Passages       []RankedPassage
	Classification QueryClassification

	// Bypassed is set when the classifier routed the query around
	// similarity scoring (meta intent).
	Bypassed bool
}

type PackedContext struct {
	Query       string         `json:"query"`
	BudgetChars int            `json:"budget_chars"`
	UsedChars   int            `json:"used_chars"`
	Sources     []PackedSource `json:"sources"`
}

type PackedSource struct {
	DocID string  `json:"doc_id"`
	Title string  `json:"title"`
	Range string  `json:"range"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type Posting struct {
	ChunkID string
	TF      int
}

type Stats struct {
	TotalDocs   int
	TotalChunks int
	TotalTerms  int
	AvgChunkLen float64
}
