package cmd

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joescharf/ghview/internal/profile"
	"github.com/joescharf/ghview/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [username]",
	Short: "Interactive terminal viewer",
	Long: `Open the interactive terminal viewer. Type an account name and press
enter to fetch it. When a username is given it is fetched on start.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var initial string
		if len(args) == 1 {
			initial = args[0]
		}

		// Logs would corrupt the alt screen; they are discarded here.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		c := profile.NewController(newGitHubClient(), logger)

		model := tui.NewModel(cmd.Context(), c, initial)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("run terminal UI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
