package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the note-generation pipeline",
	Long: `Drive the three-stage note-generation pipeline for a study unit.

A generation run has a manual boundary in the middle: 'start' assembles
and prints the prompt, you run it through your AI tool of choice, then
'record' stores the pasted response. Each stage unlocks only once its
required material (and, for stage 3, the completed prior stage) is
present.`,
}

var generateCanCmd = &cobra.Command{
	Use:   "can [unit-id] [stage]",
	Short: "Check whether a stage may run",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenerateCan,
}

var generateStartCmd = &cobra.Command{
	Use:   "start [unit-id] [stage]",
	Short: "Start a generation and print its prompt",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenerateStart,
}

var generateRecordCmd = &cobra.Command{
	Use:   "record [generation-id]",
	Short: "Record the response for a pending generation",
	Long: `Records the AI response for a pending generation, completing it.

The response is read from --file when given, otherwise from standard
input until EOF (end with Ctrl-D).`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateRecord,
}

var generateFailCmd = &cobra.Command{
	Use:   "fail [generation-id]",
	Short: "Abandon a pending generation",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateFail,
}

var generateHistoryCmd = &cobra.Command{
	Use:   "history [unit-id]",
	Short: "Show the generation history of a unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateHistory,
}

// Flags for generate commands.
var (
	generateRecordFile   string
	generateHistoryStage string
)

func init() {
	generateRecordCmd.Flags().StringVarP(
		&generateRecordFile, "file", "f", "", "Read the response from a file instead of stdin")
	generateHistoryCmd.Flags().StringVarP(
		&generateHistoryStage, "stage", "s", "", "Filter to one stage (1, 2 or 3)")

	generateCmd.AddCommand(generateCanCmd)
	generateCmd.AddCommand(generateStartCmd)
	generateCmd.AddCommand(generateRecordCmd)
	generateCmd.AddCommand(generateFailCmd)
	generateCmd.AddCommand(generateHistoryCmd)
	rootCmd.AddCommand(generateCmd)
}

// parseStageArg resolves a user-supplied stage string ("2", "stage_2",
// "STAGE_2") to a Stage.
func parseStageArg(s string) (domain.Stage, error) {
	normalised := strings.ToUpper(strings.TrimSpace(s))
	switch normalised {
	case "1", "2", "3":
		normalised = "STAGE_" + normalised
	}
	stage, err := domain.ParseStage(normalised)
	if err != nil {
		return "", fmt.Errorf("unknown stage %q (use 1, 2 or 3)", s)
	}
	return stage, nil
}

func runGenerateCan(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	stage, err := parseStageArg(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()

	eligibility, err := pipelineService.CanGenerate(ctx, args[0], stage)
	if err != nil {
		return fmt.Errorf("failed to check eligibility: %w", err)
	}

	if eligibility.Eligible {
		cmd.Printf("%s is ready to generate.\n", stage)
		return nil
	}

	cmd.Printf("%s is not ready. Missing:\n", stage)
	for _, item := range eligibility.Missing {
		cmd.Printf("  - %s\n", item)
	}
	return nil
}

func runGenerateStart(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	stage, err := parseStageArg(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()

	generation, err := pipelineService.StartGeneration(ctx, args[0], stage)
	if err != nil {
		var reqErr *domain.RequirementsNotMetError
		if errors.As(err, &reqErr) {
			cmd.PrintErrf("%s is not ready. Missing:\n", stage)
			for _, item := range reqErr.Missing {
				cmd.PrintErrf("  - %s\n", item)
			}
			return err
		}
		return fmt.Errorf("failed to start generation: %w", err)
	}

	cmd.Printf("Generation started: %s (%s v%d)\n", generation.ID, generation.Stage, generation.Version)
	cmd.Println()
	cmd.Println("--- Prompt ---")
	cmd.Println(generation.Prompt)
	cmd.Println("--- End of prompt ---")
	cmd.Println()
	cmd.Printf("Paste the response back with: studyflow generate record %s\n", generation.ID)
	return nil
}

func runGenerateRecord(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	response, err := readResponseText(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()

	generation, err := pipelineService.RecordResponse(ctx, args[0], response)
	if err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}

	cmd.Printf("Response recorded for %s v%d (%d characters).\n",
		generation.Stage, generation.Version, len(generation.ResponseText))
	cmd.Printf("Publish it with: studyflow publish %s\n", generation.ID)
	return nil
}

// readResponseText reads the response from the --file flag or stdin.
func readResponseText(cmd *cobra.Command) (string, error) {
	if generateRecordFile != "" {
		content, err := os.ReadFile(generateRecordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", generateRecordFile, err)
		}
		return string(content), nil
	}

	cmd.PrintErrln("Paste the response, then end with Ctrl-D:")
	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(content), nil
}

func runGenerateFail(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	ctx := context.Background()

	generation, err := pipelineService.MarkFailed(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to mark generation failed: %w", err)
	}

	cmd.Printf("Generation %s (%s v%d) marked failed.\n", generation.ID, generation.Stage, generation.Version)
	cmd.Println("Start a fresh attempt with: studyflow generate start")
	return nil
}

func runGenerateHistory(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	var stageFilter *domain.Stage
	if generateHistoryStage != "" {
		stage, err := parseStageArg(generateHistoryStage)
		if err != nil {
			return err
		}
		stageFilter = &stage
	}

	ctx := context.Background()

	generations, err := pipelineService.History(ctx, args[0], stageFilter)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(generations) == 0 {
		cmd.Println("No generations yet.")
		return nil
	}

	cmd.Println("Generation history:")
	cmd.Println()
	for i := range generations {
		g := &generations[i]
		cmd.Printf("  %s\n", g.ID)
		cmd.Printf("    Stage: %s v%d\n", g.Stage, g.Version)
		cmd.Printf("    Status: %s\n", g.Status)
		cmd.Printf("    Started: %s\n", g.CreatedAt.Format("2006-01-02 15:04:05"))
		if g.Published() {
			cmd.Printf("    Published: %s\n", g.PageURL)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d generations\n", len(generations))
	return nil
}
