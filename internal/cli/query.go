package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer a question from indexed documents",
	Long: `Retrieve the closest chunks, rerank them and generate an answer that
cites its sources as [1], [2], ...

Examples:
  minirag query -q "how are chunks stored?"
  minirag query -q "what is the refund policy" --json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to answer (required)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pipeline, vs, err := buildPipeline(ctx, GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer vs.Close()

	answer, err := pipeline.Query(ctx, queryText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for i, s := range answer.Sources {
			// Truncate long text for display
			if len(s) > 500 {
				s = s[:500] + "..."
			}
			fmt.Fprintf(out, "--- [%d] ---\n%s\n\n", i+1, s)
		}
	}
	return nil
}
