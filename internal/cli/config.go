package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbckr/commit-resolver/internal/config"
	"github.com/tbckr/commit-resolver/internal/httpclient"
	"github.com/tbckr/commit-resolver/internal/output"
)

func newConfigCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Inspect or change feed, download and output settings",
		GroupID: "utility",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print where the settings file lives",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), d.cfg.ConfigFile)
				return err
			},
		},
		&cobra.Command{
			Use:     "show",
			Aliases: []string{"cat"},
			Short:   "List every setting with the value a lookup would use",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return output.Write(cmd.OutOrStdout(), output.Format(d.cfg.Output), currentSettings(d))
			},
		},
		newConfigGetCmd(d),
		newConfigSetCmd(d),
		&cobra.Command{
			Use:   "edit",
			Short: "Open the settings file in your editor",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c := exec.CommandContext(cmd.Context(), editor(), d.cfg.ConfigFile) //nolint:gosec // editor comes from $EDITOR or $VISUAL
				c.Stdin, c.Stdout, c.Stderr = cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()
				return c.Run()
			},
		},
	)
	return cmd
}

// setting is one key of the settings file and its effective value.
type setting struct {
	Key   string
	Value string
}

// settings is the result of config show, ordered by key.
type settings []setting

func currentSettings(d *deps) settings {
	keys := config.ValidKeys()
	s := make(settings, len(keys))
	for i, k := range keys {
		s[i] = setting{Key: k, Value: effectiveValue(d, k)}
	}
	return s
}

// MarshalJSON renders the settings as a single key to value object.
func (s settings) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(s))
	for _, e := range s {
		m[e.Key] = e.Value
	}
	return json.Marshal(m)
}

// WriteText prints one key=value line per setting.
func (s settings) WriteText(w io.Writer) error {
	for _, e := range s {
		if _, err := fmt.Fprintf(w, "%s=%s\n", e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settings) WriteTable(w io.Writer) error {
	rows := make([][]string, len(s))
	for i, e := range s {
		rows[i] = []string{e.Key, e.Value}
	}
	return output.WriteTable(w, []string{"KEY", "VALUE"}, rows)
}

// effectiveValue is what a download would use for key. Empty user_agent and
// proxy report the HTTP client's fallback.
func effectiveValue(d *deps, key string) string {
	switch config.NormalizeKey(key) {
	case "user_agent":
		return httpclient.ResolveUserAgent(d.cfg.UserAgent)
	case "proxy":
		return httpclient.ResolveProxy(d.cfg.Proxy)
	default:
		return d.cfg.Value(key)
	}
}

func newConfigGetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of one setting",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := config.NormalizeKey(args[0])
			if err := config.ValidateKey(key); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), effectiveValue(d, key))
			return err
		},
	}
}

func newConfigSetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate a value and store it in the settings file",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			var candidates []string
			switch len(args) {
			case 0:
				candidates = config.ValidKeys()
			case 1:
				candidates = config.KeyCompletions(config.NormalizeKey(args[0]))
			}
			return candidates, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			key := config.NormalizeKey(args[0])
			if err := config.ValidateKey(key); err != nil {
				return err
			}
			value, err := config.ParseValue(key, args[1])
			if err != nil {
				return err
			}
			return storeSetting(d.cfg.ConfigFile, key, value)
		},
	}
}

// storeSetting merges key into the settings file at path. Only keys already
// present in the file are kept, so flag and env overrides never leak into it.
func storeSetting(path, key string, value any) error {
	stored := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	case len(data) > 0:
		if err := yaml.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	stored[key] = value

	data, err = yaml.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// editor picks $EDITOR, then $VISUAL, then vi.
func editor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	return "vi"
}
