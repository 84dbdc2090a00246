package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ghview"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage where ghview looks accounts up and how it serves them.

Running bare 'ghview config' is the same as 'ghview config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with the current values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show each setting, where it came from, and any invalid values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// setting is one config key known to ghview. check, when set, validates the
// effective value.
type setting struct {
	Key   string
	Help  string
	check func(v any) error
}

// EnvVar is the environment variable that overrides the setting.
func (s setting) EnvVar() string {
	return envPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(s.Key))
}

var settings = []setting{
	{Key: "state_dir", Help: "PID and log files of 'ghview serve start'"},
	{Key: "github.api_url", Help: "GitHub REST API root", check: checkAPIURL},
	{Key: "github.timeout", Help: "per-request timeout, 0s for none", check: checkTimeout},
	{Key: "port", Help: "web UI listen port", check: checkPort},
	{Key: "web.session_ttl", Help: "idle lifetime of a browser session", check: checkSessionTTL},
}

func checkAPIURL(v any) error {
	u, err := url.Parse(cast.ToString(v))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

func checkTimeout(v any) error {
	d, err := cast.ToDurationE(v)
	if err != nil {
		return err
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func checkPort(v any) error {
	p, err := cast.ToIntE(v)
	if err != nil {
		return err
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("%d is outside 1-65535", p)
	}
	return nil
}

func checkSessionTTL(v any) error {
	d, err := cast.ToDurationE(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// configProblems returns one line per setting whose effective value is
// unusable.
func configProblems() []string {
	var problems []string
	for _, s := range settings {
		if s.check == nil {
			continue
		}
		if err := s.check(viper.Get(s.Key)); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", s.Key, err))
		}
	}
	return problems
}

const configTemplate = `# ghview configuration
# Environment variables (GHVIEW_PORT, GHVIEW_GITHUB_API_URL, ...) take
# precedence over this file. Run 'ghview config show' to see which applies.

# Where 'ghview serve start' keeps ghview-serve.pid and ghview-serve.log
# state_dir: {{ .StateDir }}

github:
  # Point this at a GitHub Enterprise API root or a local stub if needed
  api_url: "{{ .APIURL }}"
  # Give up on a profile or repository request after this long ("0s" never does)
  timeout: "{{ .Timeout }}"

# Listen port for 'ghview serve'
port: {{ .Port }}

web:
  # Each browser keeps its own lookup until it has been idle this long
  session_ttl: "{{ .SessionTTL }}"
`

type configFileValues struct {
	StateDir   string
	APIURL     string
	Timeout    string
	Port       int
	SessionTTL string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func renderConfigFile() ([]byte, error) {
	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, configFileValues{
		StateDir:   viper.GetString("state_dir"),
		APIURL:     viper.GetString("github.api_url"),
		Timeout:    viper.GetDuration("github.timeout").String(),
		Port:       viper.GetInt("port"),
		SessionTTL: viper.GetDuration("web.session_ttl").String(),
	})
	if err != nil {
		return nil, fmt.Errorf("render config template: %w", err)
	}
	return buf.Bytes(), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	content, err := renderConfigFile()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, string(content))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(content))
	return nil
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	inFile := fileKeys(cfgPath)
	table := ui.Table([]string{"Key", "Value", "Source", "Description"})
	for _, s := range settings {
		_ = table.Append([]string{s.Key, cast.ToString(viper.Get(s.Key)), settingSource(s, inFile), s.Help})
	}
	_ = table.Render()

	for _, p := range configProblems() {
		ui.Warning("Invalid setting %s", p)
	}
	return nil
}

// fileKeys returns the dotted keys set in the YAML file at path. A missing
// or unreadable file yields an empty set.
func fileKeys(path string) map[string]bool {
	keys := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return keys
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return keys
	}
	collectKeys(doc.Content[0], "", keys)
	return keys
}

// collectKeys records the leaf keys under a mapping node.
func collectKeys(n *yaml.Node, prefix string, keys map[string]bool) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		if val := n.Content[i+1]; val.Kind == yaml.MappingNode {
			collectKeys(val, key, keys)
		} else {
			keys[key] = true
		}
	}
}

// settingSource reports whether the effective value comes from the
// environment, the config file or the built-in default.
func settingSource(s setting, inFile map[string]bool) string {
	if _, ok := os.LookupEnv(s.EnvVar()); ok {
		return "env: " + s.EnvVar()
	}
	if inFile[s.Key] {
		return "file"
	}
	return "default"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return errors.New("$EDITOR is not set; export EDITOR=vim (or your editor) and retry")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'ghview config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
