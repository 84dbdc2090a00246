package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joescharf/ghview/internal/output"
	"github.com/joescharf/ghview/internal/profile"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Look up an account and print its profile and repositories",
	Long: `Look up a GitHub account and print its profile followed by a table of
its public repositories (first page only).

Exits non-zero when the lookup fails. If only the repository listing
fails, the profile is still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRun(cmd.Context(), args[0])
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the lookup result as JSON")
	rootCmd.AddCommand(showCmd)
}

func showRun(ctx context.Context, username string) error {
	client := newGitHubClient()
	c := profile.NewController(client, newLogger(slog.LevelWarn))

	ui.VerboseLog("Looking up %q via %s", username, client.BaseURL())
	st, err := c.Submit(ctx, username)
	if err != nil {
		ui.VerboseLog("%v", err)
	}

	if showJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(st); encErr != nil {
			return fmt.Errorf("encode result: %w", encErr)
		}
	} else {
		printState(st)
	}

	if err != nil {
		return errors.New(profile.Message(err))
	}
	return nil
}

func printState(st profile.State) {
	if p := st.Profile; p != nil {
		fmt.Fprintf(ui.Out, "%s (%s)\n", output.Cyan(p.DisplayName()), p.Login)
		if p.Bio != "" {
			fmt.Fprintf(ui.Out, "  %s\n", p.Bio)
		}
		fmt.Fprintf(ui.Out, "  Followers: %d | Following: %d\n", p.Followers, p.Following)
		fmt.Fprintf(ui.Out, "  %s\n", p.HTMLURL)
	}

	if len(st.Repositories) > 0 {
		fmt.Fprintln(ui.Out)
		ui.Info("Repositories (%s)", output.Plural(len(st.Repositories), "repository", "repositories"))
		table := ui.Table([]string{"Name", "Description", "URL"})
		for _, r := range st.Repositories {
			_ = table.Append([]string{r.Name, r.Description, r.HTMLURL})
		}
		_ = table.Render()
	} else if st.Status == profile.StatusReady {
		fmt.Fprintln(ui.Out)
		ui.Info("No public repositories")
	}

	ui.VerboseLog("Status: %s", output.StatusColor(string(st.Status)))
}
