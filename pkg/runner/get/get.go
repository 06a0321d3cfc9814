// Package get provides the runners that read entries.
package get

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/printers"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/timeutil"
)

// Get prints one entry, read through from the remote store when signed in.
type Get struct {
	Env  *env.Env
	Date string

	Output env.Output
	Out    io.Writer
}

func (n *Get) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not get, no environment")
	}
	e, err := n.Env.Scheduler.ReadEntry(ctx, n.Env.Service, n.Date, n.Env.UserID())
	if err != nil {
		return err
	}

	out := writer(n.Out)
	if n.Output != nil && n.Output.Structured() {
		return n.Output.Write(out, e)
	}
	pp := printers.PrettyPrint{Out: out}
	pp.Entry(e, n.Env.Scheduler.ReadChecklist(ctx, n.Env.Service, n.Env.UserID()))
	return nil
}

// List prints the cached entries, optionally only those of the last Days
// days.
type List struct {
	Env  *env.Env
	Days int
	// Now anchors the window; zero means time.Now.
	Now time.Time

	Output env.Output
	Out    io.Writer
}

func (n *List) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not list, no environment")
	}
	entries := n.Env.Service.LoadLocal().Entries
	title := "Records"
	if n.Days > 0 {
		now := n.Now
		if now.IsZero() {
			now = time.Now()
		}
		from, to := timeutil.WindowRange(now, n.Days)
		entries = Between(entries, from, to)
		title = "Records, last " + timeutil.FormatWindow(n.Days)
	}

	out := writer(n.Out)
	if n.Output != nil && n.Output.Structured() {
		return n.Output.Write(out, entries)
	}
	pp := printers.PrettyPrint{Out: out}
	pp.Entries(title, entries)
	return nil
}

// Between returns the entries whose date key lies in [from, to].
func Between(entries map[string]journal.DailyEntry, from, to string) map[string]journal.DailyEntry {
	out := make(map[string]journal.DailyEntry)
	for k, e := range entries {
		if k >= from && k <= to {
			out[k] = e
		}
	}
	return out
}

func writer(w io.Writer) io.Writer {
	if w == nil {
		return color.Output
	}
	return w
}
