package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/watch"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

var (
	serveAddr     string
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the assistant over HTTP under /api/v1:

  GET    /api/v1/health
  POST   /api/v1/retrieve         {"query": "...", "top_k": 3}
  POST   /api/v1/ask              {"query": "...", "history": [...], "stream": true}
  POST   /api/v1/summarize        {"query": "..."}
  GET    /api/v1/tables/search?q=...
  GET    /api/v1/documents
  POST   /api/v1/documents        multipart field "file"
  DELETE /api/v1/documents/:name

Streaming replies are sent as server-sent events. Use --watch to ingest
files dropped into a directory while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default server.addr)")
	serveCmd.Flags().StringVarP(&serveWatchDir, "watch", "w", "", "directory to watch and ingest")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	assistant, err := requireAssistant()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = domain.DefaultServerAddr
		if settingsService != nil {
			if s, err := settingsService.Get(); err == nil && s.Server.Addr != "" {
				addr = s.Server.Addr
			}
		}
	}

	if serveWatchDir != "" && ingestService == nil {
		return errIngestUnavailable
	}

	server := httpapi.New(assistant, ingestService, httpapi.Config{Version: version})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		cmd.Printf("Listening on %s\n", addr)
		return server.Listen(ctx, addr)
	})

	if serveWatchDir != "" {
		w := watch.New(serveWatchDir, ingestService,
			watch.WithFilter(supportsFile),
			watch.WithInitialScan(true),
			watch.WithResults(func(r watch.Result) { logResult(cmd, r) }),
		)
		g.Go(func() error {
			err := w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// logResult reports watcher activity on stderr so it does not mix with
// anything written to stdout.
func logResult(cmd *cobra.Command, r watch.Result) {
	switch {
	case r.Err != nil:
		cmd.PrintErrf("watch: %s: %v\n", r.Action.Path, r.Err)
	case r.Action.Kind == watch.ActionRemove:
		cmd.PrintErrf("watch: removed %s\n", r.Action.Path)
	case r.Report != nil:
		logger.Debug("watch: ingested %s (%d chunks, %d rows)", r.Report.Name, r.Report.Chunks, r.Report.Rows)
		cmd.PrintErrf("watch: ingested %s\n", r.Report.Name)
	}
}
