package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application configuration",
	Long: `View and set configuration values.

Common keys:
  notion.token         Notion integration token
  backup.root_folder   Root Drive folder for backups (default "StudyFlow")
  drive.client_id      Google OAuth client ID
  drive.client_secret  Google OAuth client secret
  drive.token_path     Path to the saved Drive OAuth token`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Set the Notion integration token",
	Long:  `Prompts for the Notion integration token without echoing it.`,
	RunE:  runConfigSetToken,
}

// configKeys are the keys printed by config show, in display order.
var configKeys = []string{
	"notion.token",
	"backup.root_folder",
	"drive.client_id",
	"drive.client_secret",
	"drive.token_path",
}

// secretKeys are masked when displayed.
var secretKeys = map[string]bool{
	"notion.token":        true,
	"drive.client_secret": true,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Configuration")
	cmd.Println("=============")
	cmd.Println()
	for _, key := range configKeys {
		value := configStore.GetString(key)
		switch {
		case value == "":
			cmd.Printf("  %-20s (not set)\n", key)
		case secretKeys[key]:
			cmd.Printf("  %-20s %s\n", key, maskSecret(value))
		default:
			cmd.Printf("  %-20s %s\n", key, value)
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, value := args[0], args[1]
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if secretKeys[key] {
		cmd.Printf("Set %s to %s\n", key, maskSecret(value))
	} else {
		cmd.Printf("Set %s to %s\n", key, value)
	}
	return nil
}

func runConfigSetToken(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("Notion integration token: ")
	token := readPassword()
	cmd.Println()
	if token == "" {
		return errors.New("token is required")
	}

	if err := configStore.Set("notion.token", token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	cmd.Printf("Token saved (%s).\n", maskSecret(token))
	return nil
}

// readPassword reads a line from stdin without echo when attached to a
// terminal, falling back to a plain read otherwise.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// maskSecret hides the middle of a secret value.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
