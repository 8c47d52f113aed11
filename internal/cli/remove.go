package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <doc-id>",
	Short: "Remove a document from the library",
	Long: `Remove a document and its passages from the store and the index.
Document IDs are shown by 'docshelf list'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := openLibrary(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	docID := args[0]
	if err := a.library.Remove(cmd.Context(), docID); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", docID)
	return nil
}
