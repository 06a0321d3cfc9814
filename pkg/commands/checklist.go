package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/commands/options"
	"tableflip.dev/chronos/pkg/runner/collections"
	"tableflip.dev/chronos/pkg/runner/complete"
	"tableflip.dev/chronos/pkg/runner/env"
)

func addChecklist(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"rituals", "c"},
		Short:   "Manage the daily checklist.",
		Example: `
chronos checklist
chronos checklist add "Stretch"
chronos checklist toggle read yesterday
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(collections.List, "", "", io.ShowID)
		},
	}
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, output)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the checklist items.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(collections.List, "", "", io.ShowID)
		},
	}
	options.AddShowIDArgs(list, io)
	options.AddOutputArg(list, output)
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "add LABEL",
		Short: "Add a checklist item.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(collections.Add, "", strings.Join(args, " "), true)
		},
	})

	cmd.AddCommand(itemCommand("remove ITEM", "Remove a checklist item.", collections.Remove))
	cmd.AddCommand(itemCommand("enable ITEM", "Show an item on daily entries again.", collections.Enable))
	cmd.AddCommand(itemCommand("disable ITEM", "Hide an item from daily entries.", collections.Disable))

	cmd.AddCommand(&cobra.Command{
		Use:               "rename ITEM LABEL",
		Short:             "Rename a checklist item.",
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: itemCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(collections.Rename, args[0], strings.Join(args[1:], " "), true)
		},
	})

	addChecklistToggle(cmd)

	topLevel.AddCommand(cmd)
}

func addChecklistToggle(topLevel *cobra.Command) {
	do := &options.DateOptions{}

	cmd := &cobra.Command{
		Use:   "toggle ITEM [date]",
		Short: "Tick an item off for a day, or un-tick it.",
		Example: `
chronos checklist toggle read
chronos checklist toggle "Physical Movement" yesterday
`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: itemCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := do.Date(args[1:], time.Now())
			if err != nil {
				return err
			}
			return withEnv(func(ctx context.Context, e *env.Env) error {
				c := complete.Complete{Env: e, Date: day, Item: args[0]}
				return c.Do(ctx)
			})
		},
	}

	options.AddDateArgs(cmd, do)
	topLevel.AddCommand(cmd)
}

func itemCommand(use, short string, action collections.Action) *cobra.Command {
	return &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: itemCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecklist(action, args[0], "", true)
		},
	}
}

func itemCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return checklistCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func runChecklist(action collections.Action, item, label string, showID bool) error {
	return withEnv(func(ctx context.Context, e *env.Env) error {
		c := collections.Checklist{
			Env:    e,
			Action: action,
			Item:   item,
			Label:  label,
			ShowID: showID,
			Output: output,
		}
		return c.Do(ctx)
	})
}
