package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/model"
	"github.com/rolemind/rolemind/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a role's memories by text",
		Run:   runSearch,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type: episodic or semantic")
	cmd.Flags().IntP("limit", "l", 0, "Maximum results (default 20)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	role := requireRole()
	memType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")

	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		exitErr("search", fmt.Errorf("query is required"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.Search(cmd.Context(), role, store.SearchParams{
		Query: query,
		Type:  model.MemoryType(memType),
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	printJSON(entries)
}
