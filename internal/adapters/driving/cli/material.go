package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

var materialCmd = &cobra.Command{
	Use:   "material",
	Short: "Manage uploaded course material",
	Long: `Upload, list and remove course material for a study unit.

Each file is classified by kind (lecture, source, tutorial, transcript);
the kinds present determine which generation stages are unlocked.`,
}

var materialAddCmd = &cobra.Command{
	Use:   "add [unit-id] [file-path]",
	Short: "Upload a material file for a study unit",
	Args:  cobra.ExactArgs(2),
	RunE:  runMaterialAdd,
}

var materialListCmd = &cobra.Command{
	Use:   "list [unit-id]",
	Short: "List a unit's material",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialList,
}

var materialRemoveCmd = &cobra.Command{
	Use:   "remove [item-id]",
	Short: "Remove a material item",
	Long: `Removes a material item from the active set.

The item is soft-deleted: generations produced while it was present keep
their references, but it no longer counts towards stage requirements.`,
	Args: cobra.ExactArgs(1),
	RunE: runMaterialRemove,
}

// Flags for material commands.
var (
	materialAddKind string
	materialListAll bool
)

func init() {
	materialAddCmd.Flags().StringVarP(
		&materialAddKind, "kind", "k", "", "Material kind: lecture, source, tutorial or transcript (required)")
	_ = materialAddCmd.MarkFlagRequired("kind")
	materialListCmd.Flags().BoolVar(
		&materialListAll, "all", false, "Include removed items")

	materialCmd.AddCommand(materialAddCmd)
	materialCmd.AddCommand(materialListCmd)
	materialCmd.AddCommand(materialRemoveCmd)
	rootCmd.AddCommand(materialCmd)
}

// kindAliases maps CLI-friendly names onto material kinds. The canonical
// stored form (e.g. PRIMARY_LECTURE) is accepted as well.
var kindAliases = map[string]domain.MaterialKind{
	"lecture":    domain.KindPrimaryLecture,
	"source":     domain.KindSourceMaterial,
	"tutorial":   domain.KindTutorialMaterial,
	"transcript": domain.KindTranscript,
}

// parseKind resolves a user-supplied kind string to a MaterialKind.
func parseKind(s string) (domain.MaterialKind, error) {
	if kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return kind, nil
	}
	return domain.ParseMaterialKind(strings.ToUpper(strings.TrimSpace(s)))
}

func runMaterialAdd(cmd *cobra.Command, args []string) error {
	if materialService == nil {
		return errors.New("material service not configured")
	}

	kind, err := parseKind(materialAddKind)
	if err != nil {
		return fmt.Errorf("unknown material kind %q (use lecture, source, tutorial or transcript)", materialAddKind)
	}

	filePath := args[1]
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	ctx := context.Background()

	item, err := materialService.AddMaterial(ctx, args[0], kind, filepath.Base(filePath), content)
	if err != nil {
		return fmt.Errorf("failed to add material: %w", err)
	}

	cmd.Printf("Material added: %s\n", item.ID)
	cmd.Printf("  File: %s (%d bytes)\n", item.FileName, item.SizeBytes)
	cmd.Printf("  Kind: %s\n", item.Kind.Label())
	if item.StorageURL != "" {
		cmd.Printf("  Backup: %s\n", item.StorageURL)
	}
	return nil
}

func runMaterialList(cmd *cobra.Command, args []string) error {
	if materialService == nil {
		return errors.New("material service not configured")
	}

	ctx := context.Background()

	items, err := materialService.ListMaterial(ctx, args[0], !materialListAll)
	if err != nil {
		return fmt.Errorf("failed to list material: %w", err)
	}

	if len(items) == 0 {
		cmd.Println("No material uploaded yet.")
		cmd.Println("Add some with: studyflow material add <unit-id> <file> --kind <kind>")
		return nil
	}

	cmd.Println("Material:")
	cmd.Println()
	for i := range items {
		cmd.Printf("  %s\n", items[i].ID)
		cmd.Printf("    File: %s (%d bytes)\n", items[i].FileName, items[i].SizeBytes)
		cmd.Printf("    Kind: %s\n", items[i].Kind.Label())
		cmd.Printf("    Uploaded: %s\n", items[i].UploadedAt.Format("2006-01-02 15:04:05"))
		if !items[i].Active {
			cmd.Println("    Removed: yes")
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d items\n", len(items))
	return nil
}

func runMaterialRemove(cmd *cobra.Command, args []string) error {
	if materialService == nil {
		return errors.New("material service not configured")
	}

	ctx := context.Background()

	if err := materialService.RemoveMaterial(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to remove material: %w", err)
	}

	cmd.Printf("Material %s removed.\n", args[0])
	return nil
}
