package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the stored documents",
	Long: `Re-analyze every stored passage and reconstruct the index. Useful
after changing chunking or stemming settings, since stored text is
re-processed with the current configuration.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	a, err := openLibrary(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.library.Rebuild(cmd.Context()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	stats := a.library.Stats()
	fmt.Printf("Index rebuilt: %d documents, %d passages, %d terms\n",
		stats.TotalDocs, stats.TotalChunks, stats.TotalTerms)
	return nil
}
