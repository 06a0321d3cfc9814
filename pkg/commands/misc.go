package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/commands/options"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/runner/export"
	"tableflip.dev/chronos/pkg/runner/info"
	"tableflip.dev/chronos/pkg/runner/key"
	"tableflip.dev/chronos/pkg/runner/serve"
	"tableflip.dev/chronos/pkg/runner/track"
	"tableflip.dev/chronos/pkg/runner/watch"
)

func addExport(topLevel *cobra.Command) {
	stdout := false

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write the whole local cache to a JSON file.",
		Example: `
chronos export
chronos export ~/backups
chronos export --stdout | jq .entries
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				x := export.Export{Env: e, Dir: dir, Stdout: stdout}
				return x.Do(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write to stdout instead of a file.")
	topLevel.AddCommand(cmd)
}

func addStatus(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"info"},
		Short:   "Details about where data is stored and whether the remote store is usable.",
		Example: `
chronos status
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := info.Info{Env: e, Output: output}
				return s.Do(ctx)
			})
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addTrack(topLevel *cobra.Command) {
	do := &options.DateOptions{}
	year := false

	cmd := &cobra.Command{
		Use:     "track [date]",
		Aliases: []string{"calendar", "cal"},
		Short:   "Show a calendar with the days that have an entry in bold.",
		Example: `
chronos track
chronos track 2026-02-01
chronos track --year
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := do.Date(args, time.Now())
			if err != nil {
				return err
			}
			on, err := time.Parse("2006-01-02", day)
			if err != nil {
				return err
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := track.Track{Env: e, On: on, Year: year}
				return s.Do(ctx)
			})
		},
	}

	options.AddDateArgs(cmd, do)
	cmd.Flags().BoolVarP(&year, "year", "y", false, "Show the whole year.")
	topLevel.AddCommand(cmd)
}

func addKey(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the entry fields `entry set` accepts.",
		Example: `
chronos key
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			k := key.Key{}
			err := k.Do(context.Background())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addWatch(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes other chronos processes make on this device.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				w := watch.Watch{Env: e}
				return w.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addServe(topLevel *cobra.Command) {
	addr := ""

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP with a live save-status feed.",
		Example: `
chronos serve
chronos serve --listen 127.0.0.1:9000
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(ctx context.Context, e *env.Env) error {
				s := serve.Serve{Env: e, Addr: addr}
				return s.Do(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "", "Address to listen on, defaults to the listen setting.")
	topLevel.AddCommand(cmd)
}
