package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docshelf/internal/domain"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the library",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

type listEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Passages int    `json:"passages"`
	Source   string `json:"source,omitempty"`
	AddedAt  string `json:"added_at,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openLibrary(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	docs := a.library.Documents()
	entries := make([]listEntry, 0, len(docs))
	for _, doc := range docs {
		rec, err := a.library.Record(doc.ID)
		if err != nil {
			continue
		}
		entries = append(entries, listEntry{
			ID:       doc.ID,
			Title:    doc.Title,
			Passages: len(rec.Chunks),
			Source:   doc.Metadata[domain.MetaSourcePath],
			AddedAt:  doc.Metadata[domain.MetaAddedAt],
		})
	}

	if listJSON {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("The library is empty. Run 'docshelf add' to ingest documents.")
		return nil
	}

	fmt.Printf("%d document(s):\n\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s\n", e.Title)
		fmt.Printf("    id: %s  passages: %d\n", e.ID, e.Passages)
		if e.Source != "" {
			fmt.Printf("    source: %s\n", e.Source)
		}
	}

	return nil
}
