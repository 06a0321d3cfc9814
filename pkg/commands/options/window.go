package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/chronos/pkg/timeutil"
)

// WindowOptions bound a listing to the last N days.
type WindowOptions struct {
	Window string
}

func AddWindowArgs(cmd *cobra.Command, o *WindowOptions) {
	cmd.Flags().StringVarP(&o.Window, "window", "w", "",
		`Only show the last span of days, example: --window=2w or --window=3mo.`)
}

// Days returns the window length in days, or 0 for no window.
func (o *WindowOptions) Days() (int, error) {
	if o.Window == "" {
		return 0, nil
	}
	days, _, err := timeutil.ParseWindow(o.Window)
	return days, err
}
