package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(chronos completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(chronos completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

func checklistCompletions(toComplete string) []string {
	e, err := loadEnv()
	if err != nil {
		return nil
	}
	defer e.Close()

	var ids []string
	for _, it := range e.Service.GetChecklistConfig(context.Background(), "") {
		if strings.HasPrefix(it.ID, toComplete) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
