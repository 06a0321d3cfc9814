// Package log provides the runner behind `chronos entry share`.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/runner/env"
)

// Log prints the plain-text node record of one entry.
type Log struct {
	Env  *env.Env
	Date string
	Out  io.Writer
}

func (n *Log) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not share, no environment")
	}
	text, err := n.Env.Service.Share(ctx, n.Date, n.Env.UserID())
	if err != nil {
		return err
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
