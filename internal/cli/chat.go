package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docshelf/internal/tui"
	"docshelf/internal/usecase"
)

var chatTopK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Search the library interactively",
	Long: `Open an interactive screen: type a query, browse matching passages
with the arrow keys. The sentence that matched best is highlighted.
With a configured model provider, Tab composes an answer over the
current passages.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "passages per query (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
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
	if chatTopK > 0 {
		topK = chatTopK
	}

	stats := a.library.Stats()
	summary := fmt.Sprintf("%d documents, %d passages", stats.TotalDocs, stats.TotalChunks)

	m := tui.New(ret, summary, topK)

	model, err := buildModel(ctx)
	if err != nil {
		return err
	}
	if model != nil {
		answerer := usecase.NewAnswerer(a.library, usecase.NewContextPacker(), model, cfg.Answer.PromptBudget)
		m = m.WithAnswerer(answerer)
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
