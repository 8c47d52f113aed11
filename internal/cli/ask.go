package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshelf/internal/usecase"
)

var (
	askText string
	askTopK int
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question against the library",
	Long: `Retrieve the most relevant passages and compose an answer from them.
With a configured model provider the answer is generated with inline
citations; without one the passages are returned verbatim.

Examples:
  docshelf ask -q "when was the boiler last serviced?"
  docshelf ask -q "what does the lease say about pets?" --top-k 8`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	model, err := buildModel(ctx)
	if err != nil {
		return err
	}

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	result, err := ret.Retrieve(ctx, askText, topK, nil)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	answerer := usecase.NewAnswerer(a.library, usecase.NewContextPacker(), model, cfg.Answer.PromptBudget)
	answer, err := answerer.Generate(ctx, askText, result.Passages, result.Classification)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	fmt.Println(answer)

	if !result.Bypassed && len(result.Passages) > 0 {
		fmt.Println("\nSources:")
		for i, p := range result.Passages {
			fmt.Printf("  [%d] %s (chars %d-%d, score %.2f)\n",
				i+1, p.Document.Title, p.Chunk.StartOffset, p.Chunk.EndOffset, p.Score)
		}
	}

	return nil
}
