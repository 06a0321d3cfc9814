// Package export provides the runner behind `chronos export`.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/runner/env"
)

// Export writes the whole local cache as JSON, to Dir or to Out.
type Export struct {
	Env *env.Env
	Dir string
	// Stdout writes to Out instead of a file.
	Stdout bool
	Out    io.Writer
}

func (n *Export) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not export, no environment")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Stdout {
		return n.Env.Service.Export(out)
	}
	path, err := n.Env.Service.ExportFile(n.Dir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Exported to", path)
	return nil
}
