package commands

import (
	"context"
	"errors"
	"time"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/commands/options"
	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/runner/add"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/runner/get"
	"tableflip.dev/chronos/pkg/runner/log"
)

func addEntry(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "entry",
		Aliases: []string{"entries", "e"},
		Short:   "Read and write daily entries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addEntryGet(cmd)
	addEntrySet(cmd)
	addEntryShare(cmd)
	addEntryList(cmd)

	topLevel.AddCommand(cmd)
}

func addEntryGet(topLevel *cobra.Command) {
	do := &options.DateOptions{}

	cmd := &cobra.Command{
		Use:   "get [date]",
		Short: "Show the entry for a day, today by default.",
		Example: `
chronos entry get
chronos entry get yesterday
chronos entry get 2026-02-28 -o yaml
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := do.Date(args, time.Now())
			if err != nil {
				return err
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				g := get.Get{Env: e, Date: day, Output: output}
				return g.Do(ctx)
			})
		},
	}

	options.AddDateArgs(cmd, do)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addEntrySet(topLevel *cobra.Command) {
	do := &options.DateOptions{}

	var fields journal.DailyEntry
	names := make([]string, 0)

	cmd := &cobra.Command{
		Use:   "set [date] --field value ...",
		Short: "Update fields of the entry for a day.",
		Long: base.Wrap80("Update fields of the entry for a day, today by default. " +
			"The entry is saved on this device first and then pushed to the remote store. " +
			"Run `chronos key` for the list of fields."),
		Example: `
chronos entry set --mood 7 --stress 3 --feel calm,focused
chronos entry set yesterday --win "shipped the release" --gratitude "long walk"
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := do.Date(args, time.Now())
			if err != nil {
				return err
			}
			values := map[string]string{}
			for _, name := range names {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					values[name] = v
				}
			}
			if len(values) == 0 {
				return errors.New("nothing to set, see `chronos key` for the fields")
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				a := add.Add{Env: e, Date: day, Values: values, Output: output}
				return a.Do(ctx)
			})
		},
	}

	for _, f := range add.Fields(&fields) {
		names = append(names, f.Name)
		cmd.Flags().String(f.Name, "", f.Usage)
	}
	options.AddDateArgs(cmd, do)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addEntryShare(topLevel *cobra.Command) {
	do := &options.DateOptions{}

	cmd := &cobra.Command{
		Use:   "share [date]",
		Short: "Print a plain-text record of a day to paste elsewhere.",
		Example: `
chronos entry share
chronos entry share "last friday"
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := do.Date(args, time.Now())
			if err != nil {
				return err
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				l := log.Log{Env: e, Date: day}
				return l.Do(ctx)
			})
		},
	}

	options.AddDateArgs(cmd, do)
	topLevel.AddCommand(cmd)
}

func addEntryList(topLevel *cobra.Command) {
	wo := &options.WindowOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries on this device.",
		Example: `
chronos entry list
chronos entry list --window 2w
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := wo.Days()
			if err != nil {
				return err
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				l := get.List{Env: e, Days: days, Output: output}
				return l.Do(ctx)
			})
		},
	}

	options.AddWindowArgs(cmd, wo)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
