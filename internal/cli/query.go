package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
	queryDocs []string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the library",
	Long: `Search for relevant passages. The query is classified first: short
keyword queries favor precision, broad questions fan out across documents,
and library questions are routed to 'list' and 'stats' instead of scoring.

Examples:
  docshelf query -q "boiler service interval"
  docshelf query -q "insurance" --top-k 10 --json
  docshelf query -q "warranty" --doc boiler-manual-1a2b3c4d`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringArrayVar(&queryDocs, "doc", nil, "restrict to a document ID (repeatable)")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	DocID string  `json:"doc_id"`
	Title string  `json:"title"`
	Range string  `json:"range"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type queryOutput struct {
	Query      string        `json:"query"`
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Bypassed   bool          `json:"bypassed,omitempty"`
	Results    []queryResult `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openLibrary(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	ret, err := buildRetriever(ctx, a)
	if err != nil {
		return err
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	result, err := ret.Retrieve(ctx, queryText, topK, queryDocs)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := queryOutput{
		Query:      queryText,
		Intent:     string(result.Classification.Intent),
		Confidence: result.Classification.Confidence,
		Bypassed:   result.Bypassed,
		Results:    make([]queryResult, 0, len(result.Passages)),
	}
	for _, p := range result.Passages {
		out.Results = append(out.Results, queryResult{
			DocID: p.Document.ID,
			Title: p.Document.Title,
			Range: fmt.Sprintf("chars %d-%d", p.Chunk.StartOffset, p.Chunk.EndOffset),
			Score: p.Score,
			Text:  p.Chunk.Text,
		})
	}

	if queryJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if result.Bypassed {
		fmt.Println("That looks like a question about the library itself.")
		fmt.Println("Try 'docshelf list' or 'docshelf stats'.")
		return nil
	}

	if len(out.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s (%s)\n\n", len(out.Results), queryText, result.Classification.Intent)
	for i, r := range out.Results {
		fmt.Printf("--- [%d] %s (%s, score: %.2f) ---\n", i+1, r.Title, r.Range, r.Score)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
