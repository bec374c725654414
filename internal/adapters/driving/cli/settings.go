package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding and generation backends, retrieval
parameters and storage.

Settings are read from config.toml in the config directory. Environment
variables such as LM_API_URL and MODEL_NAME override the file.`,
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set one setting by its dot-notation key, for example:
  troubleshoot settings set generation.model mistral-7b-instruct
  troubleshoot settings set storage.backend badger

Run 'troubleshoot settings keys' for the full list.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List setting keys",
	Annotations: map[string]string{annotationServices: servicesNone},
	RunE:        runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:         "check",
	Short:       "Validate the current settings and ping the providers",
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:         "wizard",
	Short:       "Interactive setup wizard",
	Long:        `Run an interactive wizard to configure the backends step by step.`,
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g req/s\n", settings.Embedding.RequestsPerSecond)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Provider: %s\n", settings.Generation.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Generation.Model)
	if settings.Generation.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Generation.BaseURL)
	}
	printAPIKey(cmd, settings.Generation.Provider, settings.Generation.APIKey)
	cmd.Printf("  Temperature: %g\n", settings.Generation.Temperature)
	cmd.Printf("  Timeout: %s (stream %s)\n", settings.Generation.Timeout, settings.Generation.StreamTimeout)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Generation.IsConfigured()))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size: %d\n", settings.Retrieval.ChunkSize)
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	if settings.Storage.Backend == domain.SnapshotPostgres {
		cmd.Printf("  Database: %s\n", maskDatabaseURL(settings.Storage.DatabaseURL))
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := svc.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'troubleshoot settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	keys := services.SettingKeys()
	slices.Sort(keys)
	for _, k := range keys {
		cmd.Println(k)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	var problems []string
	if err := svc.Validate(settings); err != nil {
		problems = append(problems, err.Error())
	}
	if !settings.Embedding.IsConfigured() {
		problems = append(problems, "embedding provider is not configured")
	} else if err := svc.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		problems = append(problems, fmt.Sprintf("embedding: %v", err))
	}
	if !settings.Generation.IsConfigured() {
		problems = append(problems, "generation provider is not configured")
	} else if err := svc.ValidateGenerationConfig(cmd.Context()); err != nil {
		problems = append(problems, fmt.Sprintf("generation: %v", err))
	}

	if len(problems) == 0 {
		cmd.Println("Configuration is valid.")
		return nil
	}
	for _, p := range problems {
		cmd.Printf("  - %s\n", p)
	}
	return fmt.Errorf("%d configuration problem(s)", len(problems))
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Troubleshoot Settings Wizard")
	cmd.Println("============================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Generation Backend")
	cmd.Println("--------------------------")
	gen, err := chooseProvider(cmd, reader, generationProviders(), domain.DefaultGenerationModels())
	if err != nil {
		return err
	}
	settings.Generation.Provider = gen.provider
	settings.Generation.Model = gen.model
	settings.Generation.APIKey = gen.apiKey
	if gen.provider == domain.AIProviderOpenAI || gen.provider == domain.AIProviderOllama {
		defaultURL := settings.Generation.BaseURL
		if gen.provider == domain.AIProviderOllama {
			defaultURL = "http://localhost:11434"
		}
		cmd.Printf("Enter base URL [%s]: ", defaultURL)
		if url := readLine(reader); url != "" {
			defaultURL = url
		}
		settings.Generation.BaseURL = defaultURL
	} else {
		settings.Generation.BaseURL = ""
	}
	cmd.Println()

	cmd.Println("Step 2: Embedding Provider")
	cmd.Println("--------------------------")
	emb, err := chooseProvider(cmd, reader, embeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	settings.Embedding.Provider = emb.provider
	settings.Embedding.Model = emb.model
	settings.Embedding.APIKey = emb.apiKey
	settings.Embedding.Dimensions = 0
	if emb.provider == gen.provider && emb.provider != domain.AIProviderLocal {
		settings.Embedding.BaseURL = settings.Generation.BaseURL
	} else {
		settings.Embedding.BaseURL = ""
	}
	cmd.Println()

	cmd.Println("Step 3: Storage")
	cmd.Println("---------------")
	backends := []domain.SnapshotBackend{
		domain.SnapshotSQLite, domain.SnapshotBadger, domain.SnapshotPostgres, domain.SnapshotMemory,
	}
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	settings.Storage.Backend = backends[parseChoice(readLine(reader), len(backends), 1)-1]
	if settings.Storage.Backend == domain.SnapshotPostgres {
		cmd.Print("Enter database URL: ")
		settings.Storage.DatabaseURL = readLine(reader)
	}
	cmd.Println()

	if err := svc.Validate(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	// Validate the saved configuration by pinging the providers
	cmd.Print("Validating configuration... ")
	if err := svc.ValidateGenerationConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generation configuration validation failed: %w", err)
	}
	if err := svc.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Printf("Generation: %s (%s)\n", gen.provider.Description(), gen.model)
	cmd.Printf("Embedding: %s (%s)\n", emb.provider.Description(), emb.model)
	cmd.Printf("Storage: %s\n", settings.Storage.Backend)
	return nil
}

type providerChoice struct {
	provider domain.AIProvider
	model    string
	apiKey   string
}

func chooseProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	providers []domain.AIProvider,
	models map[domain.AIProvider]string,
) (providerChoice, error) {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selected := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return providerChoice{}, errors.New("API key is required for this provider")
		}
	}

	return providerChoice{provider: selected, model: model, apiKey: apiKey}, nil
}

func generationProviders() []domain.AIProvider {
	return []domain.AIProvider{
		domain.AIProviderOpenAI, domain.AIProviderOllama, domain.AIProviderAnthropic, domain.AIProviderGemini,
	}
}

func embeddingProviders() []domain.AIProvider {
	return []domain.AIProvider{
		domain.AIProviderLocal, domain.AIProviderOpenAI, domain.AIProviderOllama, domain.AIProviderGemini,
	}
}

func printAPIKey(cmd *cobra.Command, p domain.AIProvider, key string) {
	switch {
	case key != "":
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	case p.RequiresAPIKey():
		cmd.Printf("  API Key: (not set)\n")
	}
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDatabaseURL hides the password in a connection string.
func maskDatabaseURL(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return raw
	}
	return scheme + "://" + user + ":****@" + host
}
