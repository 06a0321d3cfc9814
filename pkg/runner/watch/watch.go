// Package watch provides the runner that follows changes other processes
// make to the local cache.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/store"
)

// Watch prints a line for every change to the cache until ctx is done.
type Watch struct {
	Env *env.Env
	Out io.Writer
}

func (n *Watch) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not watch, no environment")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	events, err := n.Env.Vault.Watch(ctx)
	if err != nil {
		return err
	}
	faint := color.New(color.Faint)
	_, _ = faint.Fprintf(out, "watching %s\n", n.Env.Vault.BasePath())

	for ev := range events {
		stamp := faint.Sprint(ev.At.Format("15:04:05"))
		switch ev.Type {
		case store.EventIdentityChanged:
			user := n.Env.UserID()
			if user == "" {
				user = "signed out"
			}
			_, _ = fmt.Fprintf(out, "%s identity: %s\n", stamp, user)
		default:
			st := n.Env.Service.Stats()
			_, _ = fmt.Fprintf(out, "%s data: %d entries, last %s\n", stamp, st.Entries, st.LastEntry)
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
