package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/output"
)

// envPrefix and envKeyReplacer map a key like github.api_url to
// GHVIEW_GITHUB_API_URL.
const envPrefix = "GHVIEW"

var envKeyReplacer = strings.NewReplacer(".", "_")

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "ghview",
	Short: "GitHub Profile Viewer - look up an account and its repositories",
	Long: `ghview looks up a GitHub account by name, shows its profile
(name, bio, followers, following) and lists its public repositories.

Use it from the terminal (show, tui), in a browser (serve), or from an
MCP client (mcp).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/ghview/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "ghview")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "ghview"))

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key's default value.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("github.api_url", github.DefaultBaseURL)
	viper.SetDefault("github.timeout", "0s")
	viper.SetDefault("port", 8080)
	viper.SetDefault("web.session_ttl", "30m")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// newLogger returns a text slog logger on stderr. Verbose mode lowers the
// threshold to debug.
func newLogger(level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(ui.ErrOut, &slog.HandlerOptions{Level: level}))
}

// newGitHubClient builds the REST client from config. A zero
// github.timeout leaves requests without a deadline.
func newGitHubClient() *github.RESTClient {
	httpClient := &http.Client{Timeout: githubTimeout()}
	return github.NewRESTClient(viper.GetString("github.api_url"), httpClient)
}

func githubTimeout() time.Duration {
	return viper.GetDuration("github.timeout")
}
