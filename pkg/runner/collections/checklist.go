// Package collections contains the runners that manage the checklist
// configuration.
package collections

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/printers"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/scheduler"
)

// Action is a checklist configuration change.
type Action string

const (
	List    Action = "list"
	Add     Action = "add"
	Remove  Action = "remove"
	Rename  Action = "rename"
	Enable  Action = "enable"
	Disable Action = "disable"
)

// Checklist applies one Action to the checklist configuration.
type Checklist struct {
	Env    *env.Env
	Action Action
	// Item is an item id, or a label when no id matches.
	Item   string
	Label  string
	ShowID bool

	Output env.Output
	Out    io.Writer
}

func (c *Checklist) Do(ctx context.Context) error {
	if c.Env == nil {
		return errors.New("can not manage checklist, no environment")
	}
	uid := c.Env.UserID()
	items := c.Env.Scheduler.ReadChecklist(ctx, c.Env.Service, uid)

	if c.Action != List && c.Action != "" {
		var err error
		if items, err = Apply(items, c.Action, c.Item, c.Label); err != nil {
			return err
		}
		c.Env.Scheduler.StageChecklist(items, uid)
		if err := c.Env.Flush(ctx); err != nil {
			return err
		}
		if werr := c.Env.Scheduler.Err(scheduler.ChecklistKey); werr != nil {
			c.Env.Logger.Warnw("checklist saved on this device only", "error", werr)
		}
	}

	out := c.Out
	if out == nil {
		out = color.Output
	}
	if c.Output != nil && c.Output.Structured() {
		return c.Output.Write(out, items)
	}
	pp := printers.PrettyPrint{ShowID: c.ShowID, Out: out}
	pp.Checklist(items)
	return nil
}

// Apply returns a copy of items with action applied.
func Apply(items []journal.ChecklistItemConfig, action Action, item, label string) ([]journal.ChecklistItemConfig, error) {
	out := journal.CloneChecklist(items)
	if action == Add {
		it := journal.NewChecklistItem(strings.TrimSpace(label))
		return append(out, it), nil
	}

	i, err := Find(out, item)
	if err != nil {
		return nil, err
	}
	switch action {
	case Remove:
		out = append(out[:i], out[i+1:]...)
	case Rename:
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, errors.New("a new label is required")
		}
		out[i].Label = label
	case Enable:
		out[i].Enabled = true
	case Disable:
		out[i].Enabled = false
	default:
		return nil, fmt.Errorf("unknown checklist action %q", action)
	}
	return out, nil
}

// Find returns the index of the item whose id is ref, or failing that whose
// label matches ref case-insensitively.
func Find(items []journal.ChecklistItemConfig, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, errors.New("a checklist item is required")
	}
	for i, it := range items {
		if it.ID == ref {
			return i, nil
		}
	}
	found := -1
	for i, it := range items {
		if strings.EqualFold(it.Label, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%q matches more than one item, use the id", ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("no checklist item %q", ref)
	}
	return found, nil
}
