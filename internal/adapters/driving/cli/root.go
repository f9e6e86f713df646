// Package cli implements the command-line driving adapter. Commands are
// thin: they parse arguments, call a driving-port service and print the
// result. All wiring happens in SetServices, called from main.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// version is the application version, overridable at build time via
// -ldflags "-X .../cli.version=x.y.z".
var version = "0.1.0"

// Services injected by main before Execute.
var (
	libraryService     driving.LibraryService
	materialService    driving.MaterialService
	pipelineService    driving.PipelineService
	publicationService driving.PublicationService
	configStore        driven.ConfigStore
)

// verbose enables debug logging across all commands.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "studyflow",
	Short: "Personal study-note pipeline",
	Long: `StudyFlow manages a personal pipeline for turning course material into
published study notes.

Material is uploaded per study unit, notes are generated in three ordered
stages (each stage unlocks once its requirements are met), responses are
pasted back in, and completed notes are published to Notion with a backup
copy on Google Drive.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// SetServices injects the service implementations the commands depend on.
// Any service may be nil; the corresponding commands then fail with a
// clear "not configured" error instead of panicking.
func SetServices(
	library driving.LibraryService,
	material driving.MaterialService,
	pipeline driving.PipelineService,
	publication driving.PublicationService,
	config driven.ConfigStore,
) {
	libraryService = library
	materialService = material
	pipelineService = pipeline
	publicationService = publication
	configStore = config
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
