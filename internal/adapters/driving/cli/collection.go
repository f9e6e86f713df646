package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
	Long: `Create and inspect collections.

A collection groups the study units of one course or subject (e.g. "Land
Law") and carries the Notion database its notes are published into.`,
}

var collectionAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionAdd,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE:  runCollectionList,
}

var collectionShowCmd = &cobra.Command{
	Use:   "show [collection-id]",
	Short: "Show a collection and its units",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionShow,
}

// Flags for collection add.
var (
	collectionAddProject  string
	collectionAddDatabase string
)

func init() {
	collectionAddCmd.Flags().StringVar(
		&collectionAddProject, "project", "", "Project name shown on published pages")
	collectionAddCmd.Flags().StringVar(
		&collectionAddDatabase, "database", "", "Notion database ID notes are published into")

	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionShowCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	collection, err := libraryService.AddCollection(ctx, args[0], collectionAddProject, collectionAddDatabase)
	if err != nil {
		return fmt.Errorf("failed to add collection: %w", err)
	}

	cmd.Printf("Collection created: %s\n", collection.ID)
	cmd.Printf("  Name: %s\n", collection.Name)
	if collection.ProjectName != "" {
		cmd.Printf("  Project: %s\n", collection.ProjectName)
	}
	if collection.DatabaseID != "" {
		cmd.Printf("  Database: %s\n", collection.DatabaseID)
	}
	return nil
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	collections, err := libraryService.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if len(collections) == 0 {
		cmd.Println("No collections yet.")
		cmd.Println("Add one with: studyflow collection add <name>")
		return nil
	}

	cmd.Println("Collections:")
	cmd.Println()
	for i := range collections {
		cmd.Printf("  %s\n", collections[i].ID)
		cmd.Printf("    Name: %s\n", collections[i].Name)
		if collections[i].ProjectName != "" {
			cmd.Printf("    Project: %s\n", collections[i].ProjectName)
		}
		if collections[i].DatabaseID != "" {
			cmd.Printf("    Database: %s\n", collections[i].DatabaseID)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d collections\n", len(collections))
	return nil
}

func runCollectionShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	collection, err := libraryService.GetCollection(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	cmd.Printf("Collection: %s\n\n", collection.ID)
	cmd.Printf("  Name:     %s\n", collection.Name)
	cmd.Printf("  Project:  %s\n", collection.ProjectName)
	cmd.Printf("  Database: %s\n", collection.DatabaseID)
	cmd.Printf("  Created:  %s\n", collection.CreatedAt.Format("2006-01-02 15:04:05"))

	units, err := libraryService.ListUnits(ctx, collection.ID)
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	if len(units) == 0 {
		cmd.Println("\n  No study units yet.")
		return nil
	}

	cmd.Println("\n  Study units:")
	for i := range units {
		cmd.Printf("    %s  %s\n", units[i].ID, units[i].Name)
	}
	return nil
}
