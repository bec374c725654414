package cli

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui"
	"github.com/custodia-labs/troubleshoot/internal/core/services"
)

var (
	chatPlain     bool
	chatSummarize bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive troubleshooting chat",
	Long: `Opens an interactive chat that keeps conversation history between
questions. Prefix a prompt with "summarize" or toggle summarize mode to get a
summary of the retrieved material instead of an answer.

The full-screen interface is used when attached to a terminal. Use --plain
for a line-based session, which also reads piped input:
  /reset      clear the history
  /summarize  toggle summarize mode
  exit        leave the chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use a line-based prompt instead of the full-screen interface")
	chatCmd.Flags().BoolVar(&chatSummarize, "summarize", false, "start in summarize mode")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	session := services.NewSession()
	session.Summarize = chatSummarize

	if !chatPlain && isTerminal() {
		return tui.Run(cmd.Context(), &tui.Ports{
			Assistant: svc,
			Ingest:    ingestService,
			Session:   session,
		})
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		prompt := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(prompt) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			session.Reset()
			cmd.Println("History cleared.")
			continue
		case "/summarize":
			session.Summarize = !session.Summarize
			if session.Summarize {
				cmd.Println("Summarize mode on.")
			} else {
				cmd.Println("Summarize mode off.")
			}
			continue
		}

		for token := range svc.Respond(cmd.Context(), session, prompt) {
			cmd.Print(token)
		}
		cmd.Println()

		if cmd.Context().Err() != nil {
			return nil
		}
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
