// Package cli provides the Cobra command tree and output wiring for commit-resolver.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbckr/commit-resolver/internal/config"
	"github.com/tbckr/commit-resolver/internal/httpclient"
	"github.com/tbckr/commit-resolver/internal/services"
	"github.com/tbckr/commit-resolver/internal/version"
)

// usageMessage is printed when neither or both of --aspnet and --runtime are given.
const usageMessage = "Either -a|--aspnet or -r|--runtime parameters is required"

// newRootCmd builds the top-level Cobra command for commit-resolver.
// Callers must set stdout/stderr via cmd.SetOut / cmd.SetErr before Execute.
func newRootCmd(newClient clientFactory) *cobra.Command {
	// d is populated by PersistentPreRunE before any RunE runs.
	// INVARIANT: Cobra only executes the innermost PersistentPreRunE in the
	// command chain. Subcommands that define their own hook will see a
	// zero-valued d.
	d := deps{newClient: newClient}

	cmd := &cobra.Command{
		Use:   "commit-resolver",
		Short: "Resolve .NET package and runtime versions to source commits",
		Long: `commit-resolver downloads an ASP.NET Core shared-framework package or a .NET Core
runtime, reads the commit it was built from, and prints a link to it.

With one version a commit permalink is printed; with several, compare links
between consecutive versions in the order given.`,
		Example: `  commit-resolver -a 2.1.0-preview2-30230
  commit-resolver -r 2.1.0 -r 2.1.1
  commit-resolver -r 2.1.0 --rid linux-x64 -o json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr(), d.newClient)
			if err != nil {
				return err
			}
			d = *resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, &d)
		},
	}

	cmd.Flags().StringArrayP("aspnet", "a", nil, "Microsoft.AspNetCore.App package version (repeatable)")
	cmd.Flags().StringArrayP("runtime", "r", nil, ".NET Core runtime version (repeatable)")
	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Get().Version
	cmd.SetVersionTemplate(version.Get().String() + "\n")

	cmd.AddGroup(&cobra.Group{ID: "utility", Title: "Utility Commands:"})

	cmd.AddCommand(
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// runResolve selects the resolver from the version flags, resolves every
// version in order and writes the result. Anything but exactly one of the two
// flags prints the usage message without touching the network.
func runResolve(cmd *cobra.Command, d *deps) error {
	aspnetVersions, err := cmd.Flags().GetStringArray("aspnet")
	if err != nil {
		return err
	}
	runtimeVersions, err := cmd.Flags().GetStringArray("runtime")
	if err != nil {
		return err
	}

	var (
		svc      services.Service
		versions []string
	)
	switch {
	case len(aspnetVersions) > 0 && len(runtimeVersions) == 0:
		svc, err = d.newAspNetService()
		versions = aspnetVersions
	case len(runtimeVersions) > 0 && len(aspnetVersions) == 0:
		svc, err = d.newRuntimeService()
		versions = runtimeVersions
	default:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), usageMessage)
		return err
	}
	if err != nil {
		return err
	}

	d.logger.Debug("resolving", "service", svc.Name(), "versions", versions)
	result, err := services.RunAll(cmd.Context(), svc, versions)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), d, result)
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(httpclient.New)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
