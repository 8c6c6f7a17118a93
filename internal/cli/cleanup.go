package cli

import (
	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Compact a role's memories",
		Long:  "Remove non-constant memories below a priority floor, then evict the least valuable until under the cap.",
		Run:   runCleanup,
	}

	cmd.Flags().Int("max", 0, "Keep at most this many entries (0 = no cap)")
	cmd.Flags().Int("floor", 0, "Remove non-constant entries below this priority")
	cmd.Flags().Bool("dry-run", false, "Report without deleting")

	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	role := requireRole()
	maxEntries, _ := cmd.Flags().GetInt("max")
	floor, _ := cmd.Flags().GetInt("floor")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	report, err := s.Cleanup(cmd.Context(), role, store.CleanupParams{
		MaxEntries:    maxEntries,
		PriorityFloor: floor,
		DryRun:        dryRun,
	})
	if err != nil {
		exitErr("cleanup", err)
	}

	printJSON(report)
}
