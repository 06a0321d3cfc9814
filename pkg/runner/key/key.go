// Package key provides CLI helpers to display the settable entry fields.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/runner/add"
)

// Key prints the fields `chronos entry set` accepts, grouped by section.
type Key struct {
	Out io.Writer
}

// Do renders the field legend.
func (k *Key) Do(ctx context.Context) error {
	out := k.Out
	if out == nil {
		out = color.Output
	}
	bold := color.New(color.Bold)

	var e journal.DailyEntry
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Section"), bold.Sprint("Flag"), bold.Sprint("Meaning"))
	section := ""
	for _, f := range add.Fields(&e) {
		name := ""
		if f.Section != section {
			section = f.Section
			name = section
		}
		tbl.AddRow(name, "--"+f.Name, f.Usage)
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(out, "")
	_, _ = fmt.Fprintln(out, tbl)
	_, _ = fmt.Fprintln(out, "")
	return nil
}
