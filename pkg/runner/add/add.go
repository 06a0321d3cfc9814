// Package add provides the runner behind `chronos entry set`.
package add

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/printers"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/scheduler"
)

// Add updates fields of one entry and writes it through the scheduler.
type Add struct {
	Env  *env.Env
	Date string
	// Values maps field names, as listed by Fields, to raw values.
	Values map[string]string

	Output env.Output
	Out    io.Writer
}

// Result is what Add reports.
type Result struct {
	Entry  journal.DailyEntry `json:"entry"`
	Status journal.SyncState  `json:"status"`
	Error  string             `json:"error,omitempty"`
}

func (n *Add) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not set, no environment")
	}
	if len(n.Values) == 0 {
		return errors.New("nothing to set, see `chronos key` for the fields")
	}
	uid := n.Env.UserID()

	e, err := n.Env.Scheduler.ReadEntry(ctx, n.Env.Service, n.Date, uid)
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, f := range Fields(&e) {
		known[f.Name] = true
		v, ok := n.Values[f.Name]
		if !ok {
			continue
		}
		if err := f.Apply(&e, v); err != nil {
			return err
		}
	}
	for name := range n.Values {
		if !known[name] {
			return fmt.Errorf("unknown field %q", name)
		}
	}

	key := scheduler.EntryKey(n.Date)
	n.Env.Scheduler.StageEntry(e, uid)
	if err := n.Env.Flush(ctx); err != nil {
		return err
	}

	res := Result{Entry: e, Status: n.Env.Scheduler.Status(key)}
	if werr := n.Env.Scheduler.Err(key); werr != nil {
		res.Error = werr.Error()
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Output != nil && n.Output.Structured() {
		return n.Output.Write(out, res)
	}

	pp := printers.PrettyPrint{Out: out}
	pp.Entry(e, n.Env.Service.LoadLocal().ChecklistConfig)
	pp.Status(map[string]journal.SyncState{key: res.Status})
	if res.Error != "" {
		return fmt.Errorf("saved on this device only: %s", res.Error)
	}
	return nil
}
