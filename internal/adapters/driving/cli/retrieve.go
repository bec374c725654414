package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

var (
	retrieveTopK int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the context retrieved for a query",
	Long: `Prints the manual chunks and table rows that would be sent to the
model for this query, without calling the generation backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "chunks per document (0 = configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output snippets as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	snippets, err := svc.Snippets(cmd.Context(), strings.Join(args, " "), retrieveTopK)
	if err != nil {
		return err
	}

	if retrieveJSON {
		if snippets == nil {
			snippets = []domain.Snippet{}
		}
		return writeJSON(cmd.OutOrStdout(), snippets)
	}

	if len(snippets) == 0 {
		cmd.Println("No matching context.")
		return nil
	}

	for i, s := range snippets {
		if s.Kind == domain.SnippetChunk {
			cmd.Printf("[%d] %s (distance %.3f)\n", i+1, s.Source, s.Distance)
		} else {
			cmd.Printf("[%d] %s (table row)\n", i+1, s.Source)
		}
		cmd.Printf("    %s\n\n", strings.ReplaceAll(s.Text, "\n", "\n    "))
	}
	return nil
}
