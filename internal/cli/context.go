package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docshelf/internal/usecase"
)

var (
	contextQuery  string
	contextBudget int
	contextOutput string
	contextTopK   int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Pack relevant passages into a context document",
	Long: `Search the library and pack the best passages into a character budget,
with provenance per source. Overlapping passages from the same document
are merged. The result is JSON, suitable for pasting into a prompt.

Examples:
  docshelf context -q "how does the heating system work"
  docshelf context -q "lease terms" -b 2000 -o context.json`,
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextQuery, "query", "q", "", "search query (required)")
	contextCmd.Flags().IntVarP(&contextBudget, "budget", "b", 0, "character budget (default from config)")
	contextCmd.Flags().StringVarP(&contextOutput, "output", "o", "", "output file (default: stdout)")
	contextCmd.Flags().IntVarP(&contextTopK, "top-k", "k", 0, "candidate pool size (default from config)")
	contextCmd.MarkFlagRequired("query")
}

func runContext(cmd *cobra.Command, args []string) error {
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
	if contextTopK > 0 {
		topK = contextTopK
	}

	budget := cfg.Answer.PromptBudget
	if contextBudget > 0 {
		budget = contextBudget
	}

	result, err := ret.Retrieve(ctx, contextQuery, topK, nil)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if result.Bypassed {
		fmt.Fprintln(os.Stderr, "That looks like a question about the library itself; nothing to pack.")
		return nil
	}
	if len(result.Passages) == 0 {
		fmt.Fprintln(os.Stderr, "No relevant content found.")
		return nil
	}

	packed, err := usecase.NewContextPacker().Pack(contextQuery, result.Passages, budget)
	if err != nil {
		return fmt.Errorf("packing failed: %w", err)
	}

	output, err := json.MarshalIndent(packed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if contextOutput != "" {
		if err := os.WriteFile(contextOutput, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Context packed to: %s\n", contextOutput)
		fmt.Printf("  Sources: %d\n", len(packed.Sources))
		fmt.Printf("  Chars:   %d / %d\n", packed.UsedChars, packed.BudgetChars)
	} else {
		fmt.Println(string(output))
	}

	return nil
}
