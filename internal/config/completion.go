package config

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/commit-resolver/internal/output"
)

// RIDs lists common runtime identifiers offered for --rid completion.
func RIDs() []string {
	return []string{"win-x64", "win-x86", "win-arm64", "linux-x64", "linux-arm64", "linux-musl-x64", "osx-x64", "osx-arm64"}
}

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return output.Formats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteRID provides shell completion candidates for the --rid flag.
func CompleteRID(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return RIDs(), cobra.ShellCompDirectiveNoFileComp
}

// RegisterFlagCompletions wires completions for the global flags on cmd.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("rid", CompleteRID)
}
