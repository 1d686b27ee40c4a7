// Package config loads commit-resolver settings from defaults, the YAML config
// file, COMMIT_RESOLVER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/commit-resolver/internal/appdir"
	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/feedurl"
	"github.com/tbckr/commit-resolver/internal/fetch"
	"github.com/tbckr/commit-resolver/internal/output"
	"github.com/tbckr/commit-resolver/internal/services/aspnet"
	"github.com/tbckr/commit-resolver/internal/services/runtime"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "COMMIT_RESOLVER"

// ErrUnknownKey is returned for config keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the fully-resolved configuration.
type Config struct {
	ConfigFile     string        `mapstructure:"-"`
	Verbose        bool          `mapstructure:"verbose"`
	Output         string        `mapstructure:"output"`
	Proxy          string        `mapstructure:"proxy"`
	UserAgent      string        `mapstructure:"user_agent"`
	Retries        int           `mapstructure:"retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TempDir        string        `mapstructure:"temp_dir"`
	RID            string        `mapstructure:"rid"`
	AspNetFeedURL  string        `mapstructure:"aspnet_feed_url"`
	RuntimeFeedURL string        `mapstructure:"runtime_feed_url"`
}

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindPositiveInt
	kindDuration
	kindEnum
	kindTemplate
)

// keySpec describes one config key. flag is empty for file/env-only keys.
type keySpec struct {
	flag   string
	kind   keyKind
	values []string
}

var keys = map[string]keySpec{
	"verbose":          {flag: "verbose", kind: kindBool},
	"output":           {flag: "output", kind: kindEnum, values: output.Formats()},
	"proxy":            {flag: "proxy", kind: kindString},
	"user_agent":       {flag: "user-agent", kind: kindString},
	"retries":          {flag: "retries", kind: kindPositiveInt},
	"timeout":          {flag: "timeout", kind: kindDuration},
	"temp_dir":         {flag: "temp-dir", kind: kindString},
	"rid":              {flag: "rid", kind: kindString},
	"aspnet_feed_url":  {kind: kindTemplate},
	"runtime_feed_url": {kind: kindTemplate},
}

// RegisterFlags adds the global flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default "+defaultPathHint()+")")
	flags.BoolP("verbose", "v", false, "enable debug logging on stderr")
	flags.StringP("output", "o", string(output.FormatText), "output format: "+strings.Join(output.Formats(), ", "))
	flags.String("proxy", "", "proxy URL (http, https or socks5); defaults to the environment")
	flags.String("user-agent", "", "User-Agent header for downloads")
	flags.Int("retries", fetch.DefaultMaxRetries, "download attempts per artifact")
	flags.Duration("timeout", fetch.DefaultTimeout, "timeout per download attempt")
	flags.String("temp-dir", "", "directory for downloaded and extracted files (default OS temp dir)")
	flags.String("rid", runtime.DefaultRID, "runtime identifier of the runtime build to download")
}

// Load resolves the configuration. The config file is created with 0600
// permissions when it does not exist yet.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		cfgFile, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, spec := range keys {
		if spec.flag == "" {
			continue
		}
		if f := flags.Lookup(spec.flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", spec.flag, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = cfgFile
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("output", string(output.FormatText))
	v.SetDefault("proxy", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("retries", fetch.DefaultMaxRetries)
	v.SetDefault("timeout", fetch.DefaultTimeout)
	v.SetDefault("temp_dir", "")
	v.SetDefault("rid", runtime.DefaultRID)
	v.SetDefault("aspnet_feed_url", aspnet.DefaultFeedURL)
	v.SetDefault("runtime_feed_url", runtime.DefaultFeedURL)
}

// DefaultConfigPath returns the config file path inside appdir.ConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := appdir.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultPathHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return "$XDG_CONFIG_HOME/" + appdir.Name + "/config.yaml"
	}
	return path
}

// ValidKeys returns every config key in sorted order.
func ValidKeys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ValidateKey reports whether key (underscore or hyphen form) exists.
func ValidateKey(key string) error {
	if _, ok := keys[NormalizeKey(key)]; !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return nil
}

// NormalizeKey converts hyphenated flag names to config keys (user-agent → user_agent).
func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}

// ParseValue converts raw into the type stored for key and validates it.
func ParseValue(key, raw string) (any, error) {
	key = NormalizeKey(key)
	spec, ok := keys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: invalid bool %q", apperr.ErrInvalidInput, key, raw)
		}
		return b, nil
	case kindPositiveInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %s: must be a positive integer, got %q", apperr.ErrInvalidInput, key, raw)
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %s: must be a positive duration such as 5s, got %q", apperr.ErrInvalidInput, key, raw)
		}
		return d.String(), nil
	case kindEnum:
		if !slices.Contains(spec.values, raw) {
			return nil, fmt.Errorf("%w: %s: must be one of %s, got %q", apperr.ErrInvalidInput, key, strings.Join(spec.values, ", "), raw)
		}
		return raw, nil
	case kindTemplate:
		if _, err := feedurl.Parse(key, raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// KeyCompletions returns value completions for key, or nil for free-form keys.
func KeyCompletions(key string) []string {
	spec, ok := keys[NormalizeKey(key)]
	if !ok {
		return nil
	}
	switch spec.kind {
	case kindBool:
		return []string{"true", "false"}
	case kindEnum:
		return spec.values
	}
	if NormalizeKey(key) == "rid" {
		return RIDs()
	}
	return nil
}

// Validate checks values that cannot be enforced by their type alone.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Output); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if c.Retries < 1 {
		return fmt.Errorf("%w: --retries must be at least 1, got %d", apperr.ErrInvalidInput, c.Retries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: --timeout must be positive, got %s", apperr.ErrInvalidInput, c.Timeout)
	}
	if strings.TrimSpace(c.RID) == "" {
		return fmt.Errorf("%w: --rid must not be empty", apperr.ErrInvalidInput)
	}
	return nil
}

// Value returns the effective value of key formatted for display.
func (c *Config) Value(key string) string {
	switch NormalizeKey(key) {
	case "verbose":
		return strconv.FormatBool(c.Verbose)
	case "output":
		return c.Output
	case "proxy":
		return c.Proxy
	case "user_agent":
		return c.UserAgent
	case "retries":
		return strconv.Itoa(c.Retries)
	case "timeout":
		return c.Timeout.String()
	case "temp_dir":
		return c.TempDir
	case "rid":
		return c.RID
	case "aspnet_feed_url":
		return c.AspNetFeedURL
	case "runtime_feed_url":
		return c.RuntimeFeedURL
	default:
		return ""
	}
}
