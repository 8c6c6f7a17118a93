package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently created memories",
		Run:   runRecent,
	}

	cmd.Flags().IntP("limit", "l", 0, "Maximum results (default 10)")

	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	role := requireRole()
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.Recent(cmd.Context(), role, limit)
	if err != nil {
		exitErr("recent", err)
	}

	printJSON(entries)
}
