package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

type statsOutput struct {
	Documents   int     `json:"documents"`
	Passages    int     `json:"passages"`
	Terms       int     `json:"terms"`
	AvgChunkLen float64 `json:"avg_passage_tokens"`
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openLibrary(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.library.Stats()
	out := statsOutput{
		Documents:   stats.TotalDocs,
		Passages:    stats.TotalChunks,
		Terms:       stats.TotalTerms,
		AvgChunkLen: stats.AvgChunkLen,
	}

	if statsJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Library at %s\n\n", cfg.StorePath(rootDir))
	fmt.Printf("  Documents:      %d\n", out.Documents)
	fmt.Printf("  Passages:       %d\n", out.Passages)
	fmt.Printf("  Distinct terms: %d\n", out.Terms)
	fmt.Printf("  Avg passage:    %.1f tokens\n", out.AvgChunkLen)
	return nil
}
