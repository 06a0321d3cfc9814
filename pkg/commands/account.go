package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/commands/options"
	"tableflip.dev/chronos/pkg/runner/account"
	"tableflip.dev/chronos/pkg/runner/env"
)

func addSignIn(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "signin USER",
		Short: "Sign in and pull the user's remote data onto this device.",
		Example: `
chronos signin ana
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := account.SignIn{Env: e, User: args[0], Output: output}
				return s.Do(ctx)
			})
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addSignOut(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Sign out and wipe the local cache.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := account.SignOut{Env: e}
				return s.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addSync(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull every remote entry and the checklist onto this device.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := account.Sync{Env: e, Output: output}
				return s.Do(ctx)
			})
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
