// Package cli provides the troubleshoot command line.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the driving ports the commands call.
type Services struct {
	Assistant driving.AssistantService
	Ingest    driving.IngestService
	Settings  driving.SettingsService

	// Supports reports whether a file name has a registered normaliser.
	// Nil accepts everything.
	Supports func(name string) bool

	// Close releases storage. May be nil.
	Close func() error
}

// BootstrapOptions are passed to the bootstrap function.
type BootstrapOptions struct {
	ConfigDir string
	DataDir   string

	// Full builds storage and backends. Otherwise only settings are loaded.
	Full bool
}

// BootstrapFunc builds the services for a command.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, error)

// Command annotations controlling what setup builds.
const (
	annotationServices = "services"
	servicesNone       = "none"
	servicesSettings   = "settings"
)

var (
	assistantService driving.AssistantService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService
	supportsFile     func(name string) bool

	bootstrap BootstrapFunc
	closer    func() error

	verbose   bool
	configDir string
	dataDir   string
)

var (
	errAssistantUnavailable = errors.New("assistant service not configured")
	errIngestUnavailable    = errors.New("ingest service not configured")
	errSettingsUnavailable  = errors.New("settings service not configured")
)

var rootCmd = &cobra.Command{
	Use:   "troubleshoot",
	Short: "Equipment troubleshooting assistant",
	Long: `troubleshoot answers questions about equipment faults from your own
manuals, logs and fault tables.

Ingest PDFs, text logs and CSV/XLSX tables, then ask questions from the
command line, an interactive chat, the HTTP API or an MCP client. Answers
are generated by a local OpenAI-compatible server (LM Studio by default),
Ollama, Anthropic or Gemini.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.troubleshoot)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services on demand.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	assistantService = s.Assistant
	ingestService = s.Ingest
	settingsService = s.Settings
	supportsFile = s.Supports
}

// setup configures logging and builds the services the command needs.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil {
		return nil
	}

	level := cmd.Annotations[annotationServices]
	if level == servicesNone {
		return nil
	}

	full := level != servicesSettings
	if (full && assistantService != nil) || (!full && settingsService != nil) {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), BootstrapOptions{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Full:      full,
	})
	if err != nil {
		return err
	}

	SetServices(svc)
	closer = svc.Close
	return nil
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if closer == nil {
			return
		}
		if err := closer(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
		closer = nil
	}()

	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func requireAssistant() (driving.AssistantService, error) {
	if assistantService == nil {
		return nil, errAssistantUnavailable
	}
	return assistantService, nil
}

func requireIngest() (driving.IngestService, error) {
	if ingestService == nil {
		return nil, errIngestUnavailable
	}
	return ingestService, nil
}

func requireSettings() (driving.SettingsService, error) {
	if settingsService == nil {
		return nil, errSettingsUnavailable
	}
	return settingsService, nil
}
