package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/chronos/pkg/commands/options"
	"tableflip.dev/chronos/pkg/runner/env"
)

var (
	output  = &options.OutputOptions{}
	verbose bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "chronos",
		Short: base.Wrap80("A local-first daily journal that keeps working offline and syncs when it can."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addEntry(topLevel)
	addChecklist(topLevel)
	addSignIn(topLevel)
	addSignOut(topLevel)
	addSync(topLevel)
	addExport(topLevel)
	addStatus(topLevel)
	addTrack(topLevel)
	addKey(topLevel)
	addWatch(topLevel)
	addServe(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

func loadEnv() (*env.Env, error) {
	return env.Load(env.Options{Verbose: verbose})
}

// withEnv loads the environment, runs fn and releases it again.
func withEnv(fn func(ctx context.Context, e *env.Env) error) error {
	e, err := loadEnv()
	if err != nil {
		return output.HandleError(err)
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return output.HandleError(fn(ctx, e))
}
