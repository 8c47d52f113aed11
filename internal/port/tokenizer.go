package port

type Tokenizer interface {
	Tokenize(text string) []string

	TermFrequencies(text string) (map[string]int, int)

	// Version identifies the normalization rules. Queries and indexed
	// chunks must be tokenized by the same version.
	Version() string
}
