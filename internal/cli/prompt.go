package cli

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"docshelf/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	promptAnswer bool
	promptDigest bool
	promptCtx    string
	promptQuery  string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render a prompt from a packed context file",
	Long: `Render a ready-to-paste prompt from a context file produced by
'docshelf context'. Use --answer for a question-answering prompt and
--digest for a summarization prompt.

Examples:
  docshelf context -q "lease terms" -o context.json
  docshelf prompt --answer --ctx context.json -q "can I sublet?"
  docshelf prompt --digest --ctx context.json`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().BoolVar(&promptAnswer, "answer", false, "use the question-answering prompt template")
	promptCmd.Flags().BoolVar(&promptDigest, "digest", false, "use the summarization prompt template")
	promptCmd.Flags().StringVar(&promptCtx, "ctx", "", "path to packed context JSON file (required)")
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question override for the answer prompt")
	promptCmd.MarkFlagRequired("ctx")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	if !promptAnswer && !promptDigest {
		return fmt.Errorf("must specify either --answer or --digest")
	}
	if promptAnswer && promptDigest {
		return fmt.Errorf("cannot specify both --answer and --digest")
	}

	ctxData, err := os.ReadFile(promptCtx)
	if err != nil {
		return fmt.Errorf("failed to read context file: %w", err)
	}

	var packed domain.PackedContext
	if err := json.Unmarshal(ctxData, &packed); err != nil {
		return fmt.Errorf("failed to parse context file: %w", err)
	}

	data := promptData{
		Query:   packed.Query,
		Sources: packed.Sources,
	}
	if promptQuery != "" {
		data.Query = promptQuery
	}

	templateName := "templates/answer_prompt.txt"
	if promptDigest {
		templateName = "templates/digest_prompt.txt"
	}

	tmplContent, err := promptTemplates.ReadFile(templateName)
	if err != nil {
		return fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Funcs(templateFuncs()).Parse(string(tmplContent))
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	fmt.Println(buf.String())
	return nil
}

type promptData struct {
	Query   string
	Sources []domain.PackedSource
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatSources": func(sources []domain.PackedSource) string {
			var sb strings.Builder
			for i, s := range sources {
				sb.WriteString(fmt.Sprintf("### [%d] %s (%s)\n", i+1, s.Title, s.Range))
				sb.WriteString(fmt.Sprintf("Relevance: %.2f\n\n", s.Score))
				sb.WriteString(s.Text)
				sb.WriteString("\n\n")
			}
			return sb.String()
		},
	}
}
