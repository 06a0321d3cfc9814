// Package track provides the runner that shows which days have a record.
package track

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/printers"
	"tableflip.dev/chronos/pkg/runner/env"
)

// Track prints a month calendar, or a whole year, of the cached entries.
type Track struct {
	Env *env.Env
	On  time.Time
	// Year prints all twelve months of On's year.
	Year bool
	Out  io.Writer
}

func (n *Track) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not track, no environment")
	}
	on := n.On
	if on.IsZero() {
		on = time.Now()
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}

	entries := n.Env.Service.LoadLocal().Entries
	pp := printers.PrettyPrint{Out: out}
	if n.Year {
		pp.Title(on.Format("2006"))
		pp.CalendarYear(on.Year(), entries)
		return nil
	}
	pp.Title(on.Format("January 2006"))
	pp.Calendar(on, entries)
	return nil
}
