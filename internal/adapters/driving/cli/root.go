// Package cli provides the docchat command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// skipServices marks commands that run without the core services.
const skipServices = "skip-services"

// version is set at build time.
var version = "dev"

// Core services used by the commands. Set by SetServices or built lazily
// by the bootstrap before a command runs.
var (
	settingsService  driving.SettingsService
	chatService      driving.ChatService
	knowledgeService driving.KnowledgeService
	sessionRegistry  driving.SessionRegistry
	ingestionRunner  driving.IngestionRunner
	tickInterval     = domain.DefaultTickInterval
	closeServices    func() error
)

// Global flags.
var (
	verbose   bool
	configDir string
	sessionID string
)

// Services holds the driving ports the commands use.
type Services struct {
	Settings  driving.SettingsService
	Chat      driving.ChatService
	Knowledge driving.KnowledgeService
	Sessions  driving.SessionRegistry
	Runner    driving.IngestionRunner

	// TickInterval paces the interactive ingestion loop.
	TickInterval time.Duration

	// Close releases storage once the command finishes. May be nil.
	Close func() error
}

// Bootstrap builds the services from the configuration directory.
// An empty configDir means the default location.
type Bootstrap func(ctx context.Context, configDir string) (*Services, error)

var bootstrap Bootstrap

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat indexes PDF and text files into a local knowledge base and
answers questions about them with a language model, citing the files
each answer was drawn from.

Ingestion is resumable: an interrupted run continues where it stopped
the next time the same files are ingested.`,
	SilenceUsage:       true,
	PersistentPreRunE:  prepareServices,
	PersistentPostRunE: releaseServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docchat)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "default", "conversation and ingestion session")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services on demand.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	settingsService = s.Settings
	chatService = s.Chat
	knowledgeService = s.Knowledge
	sessionRegistry = s.Sessions
	ingestionRunner = s.Runner
	if s.TickInterval > 0 {
		tickInterval = s.TickInterval
	}
	closeServices = s.Close
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if !needsServices(cmd) || bootstrap == nil || settingsService != nil {
		return nil
	}

	services, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	SetServices(services)
	return nil
}

func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipServices] == "true" {
			return false
		}
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func releaseServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// commandContext returns the command's context, or a background one when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// declined reports a declined ingestion start in user terms.
func declined(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		return "No supported files to ingest."
	case errors.Is(err, domain.ErrAllFilesIndexed):
		return "All files are already indexed."
	case errors.Is(err, domain.ErrProcessingInProgress):
		return "Ingestion is already in progress."
	default:
		return err.Error()
	}
}
