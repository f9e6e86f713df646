package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Manage study units",
	Long:  `Create, list and rename study units (the topics of a collection).`,
}

var unitAddCmd = &cobra.Command{
	Use:   "add [collection-id] [name]",
	Short: "Create a study unit in a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnitAdd,
}

var unitListCmd = &cobra.Command{
	Use:   "list [collection-id]",
	Short: "List the study units of a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnitList,
}

var unitRenameCmd = &cobra.Command{
	Use:   "rename [unit-id] [name]",
	Short: "Rename a study unit",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnitRename,
}

func init() {
	unitCmd.AddCommand(unitAddCmd)
	unitCmd.AddCommand(unitListCmd)
	unitCmd.AddCommand(unitRenameCmd)
	rootCmd.AddCommand(unitCmd)
}

func runUnitAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	unit, err := libraryService.AddUnit(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to add unit: %w", err)
	}

	cmd.Printf("Study unit created: %s\n", unit.ID)
	cmd.Printf("  Name: %s\n", unit.Name)
	return nil
}

func runUnitList(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	units, err := libraryService.ListUnits(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	if len(units) == 0 {
		cmd.Println("No study units yet.")
		cmd.Println("Add one with: studyflow unit add <collection-id> <name>")
		return nil
	}

	cmd.Println("Study units:")
	cmd.Println()
	for i := range units {
		cmd.Printf("  %s\n", units[i].ID)
		cmd.Printf("    Name: %s\n", units[i].Name)
		cmd.Printf("    Created: %s\n", units[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d units\n", len(units))
	return nil
}

func runUnitRename(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	if err := libraryService.RenameUnit(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename unit: %w", err)
	}

	cmd.Printf("Study unit %s renamed to %q.\n", args[0], args[1])
	return nil
}
