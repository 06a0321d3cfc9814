// Package info provides the runner behind `chronos status`.
package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/printers"
	"tableflip.dev/chronos/pkg/runner/env"
)

// Info describes where data lives and whether the remote store is usable.
type Info struct {
	Env *env.Env

	Output env.Output
	Out    io.Writer
}

// Report is the structured form of Info.
type Report struct {
	ConfigPath   string    `json:"configPath,omitempty"`
	Path         string    `json:"path"`
	Remote       string    `json:"remote"`
	User         string    `json:"user,omitempty"`
	Stats        app.Stats `json:"stats"`
	Breaker      string    `json:"breaker,omitempty"`
	TrippedSince time.Time `json:"trippedSince,omitempty"`
}

func (n *Info) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not report, no environment")
	}
	r := Report{
		ConfigPath: os.Getenv("CHRONOS_CONFIG_PATH"),
		Path:       n.Env.Vault.BasePath(),
		Remote:     n.Env.Settings.Remote.Kind,
		User:       n.Env.UserID(),
		Stats:      n.Env.Service.Stats(),
	}
	if reason := n.Env.Breaker.Reason(); reason != nil {
		r.Breaker = reason.Error()
		r.TrippedSince = n.Env.Breaker.Since()
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Output != nil && n.Output.Structured() {
		return n.Output.Write(out, r)
	}

	if r.ConfigPath != "" {
		_, _ = fmt.Fprintln(out, "CHRONOS_CONFIG_PATH found on env, using", r.ConfigPath)
	}
	_, _ = fmt.Fprintln(out, "Config.path:", r.Path)
	_, _ = fmt.Fprintln(out, "Remote:", r.Remote)
	user := r.User
	if user == "" {
		user = "signed out"
	}
	_, _ = fmt.Fprintln(out, "User:", user)
	if r.Breaker != "" {
		_, _ = color.New(color.FgRed).Fprintf(out, "Remote disabled since %s: %s\n",
			r.TrippedSince.Format(time.RFC3339), r.Breaker)
	}
	_, _ = fmt.Fprintln(out, "")

	pp := printers.PrettyPrint{Out: out}
	pp.Stats(r.Stats)
	if statuses := n.Env.Scheduler.Statuses(); len(statuses) > 0 {
		pp.Status(statuses)
	}
	return nil
}
