// Package account provides the sign-in, sign-out and sync runners.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/runner/env"
)

// ErrSignedOut is returned by Sync when no user is recorded.
var ErrSignedOut = errors.New("not signed in, run `chronos signin USER` first")

// SignIn records User and pulls their remote data into the cache.
type SignIn struct {
	Env  *env.Env
	User string

	Output env.Output
	Out    io.Writer
}

func (n *SignIn) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not sign in, no environment")
	}
	report, err := n.Env.Session.SignIn(ctx, n.User)
	if report.Skipped && err == nil && !n.Env.Service.IsCloudAvailable() {
		n.Env.Logger.Infow("signed in without a remote store", "user", n.User)
	}
	return printReport(n.Output, n.Out, "Signed in as "+n.User, report, err)
}

// SignOut wipes the local cache and the recorded user.
type SignOut struct {
	Env *env.Env
	Out io.Writer
}

func (n *SignOut) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not sign out, no environment")
	}
	user := n.Env.UserID()
	if err := n.Env.Session.SignOut(); err != nil {
		return err
	}
	if user == "" {
		user = "nobody"
	}
	_, _ = fmt.Fprintf(writer(n.Out), "Signed out %s, local cache cleared.\n", user)
	return nil
}

// Sync runs a bulk hydration for the recorded user.
type Sync struct {
	Env *env.Env

	Output env.Output
	Out    io.Writer
}

func (n *Sync) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not sync, no environment")
	}
	uid := n.Env.UserID()
	if uid == "" {
		return ErrSignedOut
	}
	if !n.Env.Service.IsCloudAvailable() {
		return app.ErrNoRemote
	}
	report, err := n.Env.Service.SyncAllFromCloud(ctx, uid)
	return printReport(n.Output, n.Out, "Synced "+uid, report, err)
}

func printReport(o env.Output, w io.Writer, title string, r app.HydrationReport, err error) error {
	out := writer(w)
	if err != nil {
		return fmt.Errorf("%s, but hydration failed: %w", title, err)
	}
	if o != nil && o.Structured() {
		return o.Write(out, r)
	}
	_, _ = color.New(color.Bold).Fprintln(out, title)
	if r.Skipped {
		_, _ = color.New(color.Faint).Fprintln(out, "  remote store not available, nothing pulled")
		return nil
	}
	if r.Aborted {
		_, _ = color.New(color.FgYellow).Fprintln(out, "  remote store unreachable, kept local data")
		return nil
	}
	_, _ = fmt.Fprintf(out, "  entries: %d\n", r.Entries)
	_, _ = fmt.Fprintf(out, "  checklist: %t\n", r.Checklist)
	if r.Superseded > 0 {
		_, _ = fmt.Fprintf(out, "  kept local edits: %d\n", r.Superseded)
	}
	if r.Invalid > 0 {
		_, _ = fmt.Fprintf(out, "  skipped invalid: %d\n", r.Invalid)
	}
	return nil
}

func writer(w io.Writer) io.Writer {
	if w == nil {
		return color.Output
	}
	return w
}
