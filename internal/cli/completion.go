package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// shellCompletion describes how one shell loads the generated script.
type shellCompletion struct {
	name    string
	session string
	persist string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shellCompletions = []shellCompletion{
	{
		name:    "bash",
		session: "source <(commit-resolver completion bash)",
		persist: "commit-resolver completion bash > ~/.local/share/bash-completion/completions/commit-resolver",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenBashCompletionV2(w, true)
		},
	},
	{
		name:    "zsh",
		session: "source <(commit-resolver completion zsh)",
		persist: `commit-resolver completion zsh > "${fpath[1]}/_commit-resolver"   # needs compinit in ~/.zshrc`,
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenZshCompletion(w)
		},
	},
	{
		name:    "fish",
		session: "commit-resolver completion fish | source",
		persist: "commit-resolver completion fish > ~/.config/fish/completions/commit-resolver.fish",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenFishCompletion(w, true)
		},
	},
	{
		name:    "powershell",
		session: "commit-resolver completion powershell | Out-String | Invoke-Expression",
		persist: "append the session command to $PROFILE",
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenPowerShellCompletionWithDesc(w)
		},
	},
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "completion <shell>",
		Short:   "Print a shell completion script",
		GroupID: "utility",
		Long: `Print a completion script for commit-resolver to stdout.

Completions cover subcommands, flags, config keys and the values each
config key accepts. Run "commit-resolver completion <shell> --help" for
the lines that load the script in that shell.`,
		// buildDeps would create the config dir and file; completions
		// must work without touching the filesystem.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}
	for _, sh := range shellCompletions {
		cmd.AddCommand(sh.command())
	}
	return cmd
}

func (sh shellCompletion) command() *cobra.Command {
	return &cobra.Command{
		Use:                   sh.name,
		Short:                 fmt.Sprintf("Print the %s completion script", sh.name),
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		Long: fmt.Sprintf(`Print the %s completion script for commit-resolver.

Current session only:
  %s

Every new session:
  %s`, sh.name, sh.session, sh.persist),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}
