package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

var (
	askTopK     int
	askNoStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a troubleshooting question",
	Long: `Retrieves the most relevant manual passages and table rows for the
question and asks the generation backend to answer from them. The reply is
streamed as it is generated unless --no-stream is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [topic]",
	Short: "Summarise the material retrieved for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSummarize,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "chunks per document (0 = configured default)")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "print the reply only once it is complete")
	summarizeCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "chunks per document (0 = configured default)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	req := driving.AskRequest{
		Query: strings.Join(args, " "),
		Mode:  domain.ModeNormal,
		TopK:  askTopK,
	}

	if askNoStream {
		cmd.Println(svc.Reply(cmd.Context(), req))
		return nil
	}

	for token := range svc.StreamReply(cmd.Context(), req) {
		cmd.Print(token)
	}
	cmd.Println()
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	cmd.Println(svc.Reply(cmd.Context(), driving.AskRequest{
		Query: strings.Join(args, " "),
		Mode:  domain.ModeSummarize,
		TopK:  askTopK,
	}))
	return nil
}
