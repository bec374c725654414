// Command troubleshoot is an equipment troubleshooting assistant that answers
// from ingested manuals, logs and fault tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/cli"
	"github.com/custodia-labs/troubleshoot/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap builds the services a command asks for.
func bootstrap(ctx context.Context, opts cli.BootstrapOptions) (*cli.Services, error) {
	appOpts := app.Options{ConfigDir: opts.ConfigDir, DataDir: opts.DataDir}

	if !opts.Full {
		a, err := app.NewSettingsOnly(appOpts)
		if err != nil {
			return nil, err
		}
		return &cli.Services{Settings: a.SettingsService}, nil
	}

	a, err := app.New(ctx, appOpts)
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Assistant: a.Assistant,
		Ingest:    a.Ingest,
		Settings:  a.SettingsService,
		Supports:  a.Ingest.Supports,
		Close:     a.Close,
	}, nil
}
