// Command studyflow is a personal pipeline for turning course material
// into published study notes: material uploads, three-stage note
// generation with a manual AI boundary, and publication to Notion with a
// Google Drive backup.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"

	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/drive"
	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/notion"
	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/prompts"
	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/studyflow-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/services"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	config, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	renderer, err := prompts.NewRenderer("")
	if err != nil {
		return fmt.Errorf("loading prompt templates: %w", err)
	}
	defer renderer.Close()

	rootFolder := config.GetString("backup.root_folder")
	if rootFolder == "" {
		rootFolder = "StudyFlow"
	}

	// External adapters are optional: commands that need one fail with a
	// clear error when it is not configured.
	var publisher driven.DocumentPublisher
	if token := config.GetString("notion.token"); token != "" {
		publisher = notion.NewPublisher(token)
	}
	backup := driveBackupStore(ctx, config)

	cli.SetServices(
		services.NewLibraryService(store.CollectionStore(), store.StudyUnitStore()),
		services.NewMaterialService(store.CollectionStore(), store.StudyUnitStore(), store.MaterialStore(), backup, rootFolder),
		services.NewPipelineService(store.CollectionStore(), store.StudyUnitStore(), store.MaterialStore(), store.GenerationStore(), renderer),
		services.NewPublicationService(store.CollectionStore(), store.StudyUnitStore(), store.GenerationStore(), publisher, backup, rootFolder),
		config,
	)

	return cli.Execute()
}

// driveBackupStore builds the Drive backup store from configuration, or
// returns nil when OAuth credentials or a saved token are missing.
func driveBackupStore(ctx context.Context, config *file.ConfigStore) driven.BackupStore {
	clientID := config.GetString("drive.client_id")
	clientSecret := config.GetString("drive.client_secret")
	if clientID == "" || clientSecret == "" {
		return nil
	}

	tokenPath := config.GetString("drive.token_path")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		tokenPath = filepath.Join(home, ".studyflow", "drive_token.json")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{driveapi.DriveFileScope},
	}

	ts, err := drive.TokenSource(ctx, conf, tokenPath)
	if err != nil {
		logger.Warn("drive token unavailable, backups disabled: %v", err)
		return nil
	}

	backup, err := drive.NewBackupStore(ctx, ts)
	if err != nil {
		logger.Warn("drive service unavailable, backups disabled: %v", err)
		return nil
	}
	return backup
}
