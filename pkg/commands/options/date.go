package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/timeutil"
)

// DateOptions selects the day a command works on.
type DateOptions struct {
	On string
}

func AddDateArgs(cmd *cobra.Command, o *DateOptions) {
	cmd.Flags().StringVar(&o.On, "on", "",
		`Specify a date, example: --on=2026-02-28, --on=yesterday or --on="last friday".`)
}

// Date resolves the flag, or args[0] when given, to a date key. Empty means
// today.
func (o *DateOptions) Date(args []string, now time.Time) (string, error) {
	in := o.On
	if len(args) > 0 && args[0] != "" {
		in = args[0]
	}
	return timeutil.ParseDate(in, now)
}
