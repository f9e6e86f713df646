package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

var publishCmd = &cobra.Command{
	Use:   "publish [generation-id]",
	Short: "Publish a completed generation",
	Long: `Publishes a completed generation: the response is converted to Notion
blocks, a page is created in the collection's database, and a markdown
backup is uploaded to Google Drive.

A generation can be published once. To publish updated notes, generate a
new version; the previous page is marked superseded, not overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

// publishDatabase overrides the collection's configured database ID.
var publishDatabase string

func init() {
	publishCmd.Flags().StringVar(
		&publishDatabase, "database", "", "Notion database ID (defaults to the collection's)")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if publicationService == nil {
		return errors.New("publication service not configured")
	}

	generationID := args[0]
	ctx := context.Background()

	cmd.Printf("Publishing generation %s...\n", generationID)

	result, err := publicationService.Publish(ctx, generationID, publishDatabase)
	if err != nil {
		var pubErr *domain.PublishError
		if errors.As(err, &pubErr) {
			if pubErr.OrphanedPageID != "" {
				cmd.PrintErrf("A Notion page was created but could not be cleaned up.\n")
				cmd.PrintErrf("Delete it manually: page %s\n", pubErr.OrphanedPageID)
			}
			if pubErr.ExternalArtifactsKept {
				cmd.PrintErrln("The page and backup were created but not recorded locally.")
				cmd.PrintErrln("Verify them manually before publishing again to avoid duplicates.")
			}
		}
		return fmt.Errorf("failed to publish: %w", err)
	}

	cmd.Println("Published successfully.")
	cmd.Printf("  Page:   %s\n", result.DocumentURL)
	cmd.Printf("  Backup: %s\n", result.BackupURL)
	return nil
}
