package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List ingested documents",
	RunE:    runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show details for one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsRemoveCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm"},
	Short:   "Remove a document and its snapshot",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentsRemove,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsRemoveCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	docs := svc.Documents(cmd.Context())
	if documentsJSON {
		if docs == nil {
			docs = []driving.DocumentSummary{}
		}
		return writeJSON(cmd.OutOrStdout(), docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
	}
	for _, d := range docs {
		cmd.Printf("%-40s %5d chunks  %s\n", d.Name, d.Chunks, d.IngestedAt.Format("2006-01-02 15:04"))
	}
	if rows := svc.TableRowCount(); rows > 0 {
		cmd.Printf("\n%d table rows pooled\n", rows)
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	for _, d := range svc.Documents(cmd.Context()) {
		if d.Name != args[0] {
			continue
		}
		cmd.Printf("Name:     %s\n", d.Name)
		if d.URI != "" {
			cmd.Printf("Source:   %s\n", d.URI)
		}
		cmd.Printf("Chunks:   %d\n", d.Chunks)
		cmd.Printf("Ingested: %s\n", d.IngestedAt.Format("2006-01-02 15:04:05"))
		return nil
	}
	return fmt.Errorf("%w: document %q", domain.ErrNotFound, args[0])
}

func runDocumentsRemove(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	if err := svc.RemoveDocument(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
