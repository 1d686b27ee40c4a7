package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/config"
	"github.com/tbckr/commit-resolver/internal/services/aspnet"
	"github.com/tbckr/commit-resolver/internal/services/runtime"
)

// newTestFlags registers all config flags on a fresh FlagSet, then parses extra args.
func newTestFlags(t *testing.T, cfgFile string, extra ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	args := append([]string{"--config=" + cfgFile}, extra...)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_DefaultsWithTempDir(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	cfg, err := config.Load(newTestFlags(t, cfgFile))
	require.NoError(t, err)
	assert.Equal(t, cfgFile, cfg.ConfigFile)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "win-x64", cfg.RID)
	assert.Empty(t, cfg.TempDir)
	assert.Equal(t, aspnet.DefaultFeedURL, cfg.AspNetFeedURL)
	assert.Equal(t, runtime.DefaultFeedURL, cfg.RuntimeFeedURL)
	require.NoError(t, cfg.Validate())

	// Config file should now exist with 0600 permissions.
	info, err := os.Stat(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_ExistingConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	// Pre-create the file; Load must not fail if it already exists.
	require.NoError(t, os.WriteFile(cfgFile, []byte{}, 0o600))

	cfg, err := config.Load(newTestFlags(t, cfgFile, "--verbose", "--output=json"))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoad_Flags(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := config.Load(newTestFlags(t, cfgFile,
		"-v",
		"-o", "table",
		"--proxy=http://proxy:8080",
		"--user-agent=MyAgent/1.0",
		"--retries=5",
		"--timeout=30s",
		"--temp-dir=/tmp/cr",
		"--rid=linux-x64",
	))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "http://proxy:8080", cfg.Proxy)
	assert.Equal(t, "MyAgent/1.0", cfg.UserAgent)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/cr", cfg.TempDir)
	assert.Equal(t, "linux-x64", cfg.RID)
}

func TestLoad_ConfigFileValues(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := "proxy: \"http://fileproxy:3128\"\n" +
		"user_agent: \"FileAgent/2.0\"\n" +
		"retries: 7\n" +
		"timeout: 1m\n" +
		"aspnet_feed_url: \"https://mirror.example.com/aspnet/{{ .Version }}\"\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(yamlContent), 0o600))

	cfg, err := config.Load(newTestFlags(t, cfgFile))
	require.NoError(t, err)
	assert.Equal(t, "http://fileproxy:3128", cfg.Proxy)
	assert.Equal(t, "FileAgent/2.0", cfg.UserAgent)
	assert.Equal(t, 7, cfg.Retries)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, "https://mirror.example.com/aspnet/{{ .Version }}", cfg.AspNetFeedURL)
	assert.Equal(t, runtime.DefaultFeedURL, cfg.RuntimeFeedURL)
}

func TestLoad_Precedence(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("retries: 7\nrid: osx-x64\nuser_agent: FileAgent\n"), 0o600))

	t.Setenv("COMMIT_RESOLVER_RETRIES", "9")
	t.Setenv("COMMIT_RESOLVER_RID", "linux-arm64")
	t.Setenv("COMMIT_RESOLVER_RUNTIME_FEED_URL", "https://env.example.com/{{ .Version }}.zip")

	cfg, err := config.Load(newTestFlags(t, cfgFile, "--rid=win-arm64"))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retries, "env overrides file")
	assert.Equal(t, "win-arm64", cfg.RID, "flag overrides env")
	assert.Equal(t, "FileAgent", cfg.UserAgent, "file overrides default")
	assert.Equal(t, "https://env.example.com/{{ .Version }}.zip", cfg.RuntimeFeedURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("retries: [unterminated\n"), 0o600))

	_, err := config.Load(newTestFlags(t, cfgFile))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{Output: "text", Retries: 3, Timeout: time.Second, RID: "win-x64"}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"bad output", func(c *config.Config) { c.Output = "xml" }},
		{"zero retries", func(c *config.Config) { c.Retries = 0 }},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }},
		{"empty rid", func(c *config.Config) { c.RID = " " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestValidateKey(t *testing.T) {
	t.Run("valid_underscore", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("user_agent"))
	})
	t.Run("valid_hyphen", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("temp-dir"))
	})
	t.Run("all_keys", func(t *testing.T) {
		for _, k := range config.ValidKeys() {
			require.NoError(t, config.ValidateKey(k), "key %q should be valid", k)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		err := config.ValidateKey("does_not_exist")
		require.Error(t, err)
		require.ErrorIs(t, err, config.ErrUnknownKey)
	})
}

func TestValidKeys_Sorted(t *testing.T) {
	assert.IsNonDecreasing(t, config.ValidKeys())
	assert.Contains(t, config.ValidKeys(), "aspnet_feed_url")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		// bool
		{key: "verbose", value: "true", want: true},
		{key: "verbose", value: "1", want: true},
		{key: "verbose", value: "yes", wantErr: true},
		// int
		{key: "retries", value: "5", want: 5},
		{key: "retries", value: "0", wantErr: true},
		{key: "retries", value: "abc", wantErr: true},
		// duration
		{key: "timeout", value: "90s", want: "1m30s"},
		{key: "timeout", value: "-1s", wantErr: true},
		{key: "timeout", value: "soon", wantErr: true},
		// enum
		{key: "output", value: "json", want: "json"},
		{key: "output", value: "table", want: "table"},
		{key: "output", value: "plain", wantErr: true},
		// template
		{key: "aspnet-feed-url", value: "https://m.example.com/{{ .Version }}", want: "https://m.example.com/{{ .Version }}"},
		{key: "runtime_feed_url", value: "https://m.example.com/{{ .Version", wantErr: true},
		// free-form string
		{key: "proxy", value: "socks5://127.0.0.1:9050", want: "socks5://127.0.0.1:9050"},
		{key: "rid", value: "linux-x64", want: "linux-x64"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"/"+tc.value, func(t *testing.T) {
			got, err := config.ParseValue(tc.key, tc.value)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValue_TemplateErrorIsInvalidInput(t *testing.T) {
	_, err := config.ParseValue("aspnet_feed_url", "{{")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestParseValue_UnknownKey(t *testing.T) {
	_, err := config.ParseValue("nonexistent", "value")
	require.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestKeyCompletions(t *testing.T) {
	assert.Equal(t, []string{"text", "json", "table"}, config.KeyCompletions("output"))
	assert.Equal(t, []string{"true", "false"}, config.KeyCompletions("verbose"))
	assert.Contains(t, config.KeyCompletions("rid"), "win-x64")
	assert.Nil(t, config.KeyCompletions("proxy"))
	assert.Nil(t, config.KeyCompletions("nope"))
}

func TestConfig_Value(t *testing.T) {
	c := &config.Config{Verbose: true, Retries: 4, Timeout: 2 * time.Second, UserAgent: "UA"}
	assert.Equal(t, "true", c.Value("verbose"))
	assert.Equal(t, "4", c.Value("retries"))
	assert.Equal(t, "2s", c.Value("timeout"))
	assert.Equal(t, "UA", c.Value("user-agent"))
	assert.Empty(t, c.Value("unknown"))
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := config.DefaultConfigPath()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path), "expected absolute path, got %q", path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, "commit-resolver", filepath.Base(filepath.Dir(path)))
}
