// Package complete provides the runner that ticks checklist items off for a
// day.
package complete

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/runner/collections"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/scheduler"
)

// Complete flips one checklist item on the entry for Date.
type Complete struct {
	Env  *env.Env
	Date string
	Item string
	Out  io.Writer
}

func (n *Complete) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not complete, no environment")
	}
	uid := n.Env.UserID()

	items := n.Env.Scheduler.ReadChecklist(ctx, n.Env.Service, uid)
	i, err := collections.Find(items, n.Item)
	if err != nil {
		return err
	}
	item := items[i]
	if !item.Enabled {
		return fmt.Errorf("%q is disabled", item.Label)
	}

	e, err := n.Env.Scheduler.ReadEntry(ctx, n.Env.Service, n.Date, uid)
	if err != nil {
		return err
	}
	if e.Checklist == nil {
		e.Checklist = map[string]bool{}
	}
	done := !e.Checklist[item.ID]
	e.Checklist[item.ID] = done

	n.Env.Scheduler.StageEntry(e, uid)
	if err := n.Env.Flush(ctx); err != nil {
		return err
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	mark := "[ ]"
	if done {
		mark = color.New(color.FgGreen).Sprint("[x]")
	}
	_, _ = fmt.Fprintf(out, "%s %s %s (%s)\n", n.Date, mark, item.Label,
		n.Env.Scheduler.Status(scheduler.EntryKey(n.Date)))
	return nil
}
