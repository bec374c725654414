package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
	"github.com/custodia-labs/troubleshoot/internal/normalisers/pdf"
)

// pdfToolCheck reports whether the layout-preserving PDF extractor is installed.
var pdfToolCheck = pdf.CheckAvailable

var (
	ingestRecursive bool
	ingestJSON      bool
	ingestStdinName string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest manuals, logs and fault tables",
	Long: `Ingest files or directories into the knowledge base.

PDF and text files are chunked and embedded for semantic retrieval. CSV and
XLSX files are added to the pooled table store and matched by keyword.
Re-ingesting a file replaces the earlier copy.

Use --stdin with a name to ingest piped text:
  journalctl -u boiler | troubleshoot ingest --stdin boiler.log`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "descend into subdirectories")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output reports as JSON")
	ingestCmd.Flags().StringVar(&ingestStdinName, "stdin", "", "read text from stdin and store it under this name")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	if ingestStdinName != "" {
		return ingestStdin(cmd, svc)
	}
	if len(args) == 0 {
		return errors.New("requires at least one path, or --stdin NAME")
	}

	var (
		reports []*driving.IngestReport
		failed  int
		sawPDF  bool
	)
	for _, path := range args {
		files, err := collectFiles(path, ingestRecursive)
		if err != nil {
			return err
		}
		explicit := len(files) == 1 && files[0] == path

		for _, file := range files {
			if !explicit && supportsFile != nil && !supportsFile(file) {
				logger.Debug("skipping unsupported file %s", file)
				continue
			}

			report, err := svc.IngestFile(cmd.Context(), file)
			if err != nil {
				failed++
				cmd.PrintErrf("%s: %v\n", file, err)
				continue
			}
			reports = append(reports, report)
			sawPDF = sawPDF || strings.EqualFold(filepath.Ext(file), ".pdf")
			if !ingestJSON {
				printReport(cmd, report)
			}
		}
	}

	if ingestJSON {
		if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
	} else {
		cmd.Printf("\nIngested %d file(s)", len(reports))
		if failed > 0 {
			cmd.Printf(", %d failed", failed)
		}
		cmd.Println()
	}

	if sawPDF {
		if err := pdfToolCheck(); err != nil {
			cmd.PrintErrf("\nnote: %v, PDFs were read with the built-in extractor.\n%s\n", err, pdf.InstallInstructions())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", failed)
	}
	return nil
}

func ingestStdin(cmd *cobra.Command, svc driving.IngestService) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	report, err := svc.IngestText(cmd.Context(), ingestStdinName, string(data))
	if err != nil {
		return err
	}

	if ingestJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printReport(cmd, report)
	return nil
}

// collectFiles expands a path into regular files. Hidden entries below the
// given path are skipped.
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == path {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	return files, nil
}

func printReport(cmd *cobra.Command, r *driving.IngestReport) {
	if r.Kind == domain.ExtractionTable {
		cmd.Printf("  %s: %d rows\n", r.Name, r.Rows)
		return
	}
	cmd.Printf("  %s: %d chunks\n", r.Name, r.Chunks)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}
