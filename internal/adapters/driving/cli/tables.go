package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var tablesLimit int

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Query ingested fault tables",
}

var tablesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find table rows containing any query word",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTablesSearch,
}

func init() {
	tablesSearchCmd.Flags().IntVarP(&tablesLimit, "limit", "n", 20, "maximum rows to print (0 = all)")
	tablesCmd.AddCommand(tablesSearchCmd)
	rootCmd.AddCommand(tablesCmd)
}

func runTablesSearch(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	rows := svc.SearchTables(strings.Join(args, " "))
	if len(rows) == 0 {
		cmd.Println("No matching rows.")
		return nil
	}

	shown := rows
	if tablesLimit > 0 && len(rows) > tablesLimit {
		shown = rows[:tablesLimit]
	}
	for _, row := range shown {
		cmd.Println(row)
	}
	if len(shown) < len(rows) {
		cmd.Printf("... %d more (use --limit 0 to show all)\n", len(rows)-len(shown))
	}
	return nil
}
