package cli

import (
	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/model"
	"github.com/rolemind/rolemind/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a role's memories",
		Run:   runList,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type: episodic or semantic")
	cmd.Flags().Bool("constants", false, "Only constant memories")
	cmd.Flags().String("tag", "", "Filter by tag")
	cmd.Flags().IntP("limit", "l", 0, "Maximum entries (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	role := requireRole()
	memType, _ := cmd.Flags().GetString("type")
	constants, _ := cmd.Flags().GetBool("constants")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entries, err := s.List(cmd.Context(), role, store.ListParams{
		Type:          model.MemoryType(memType),
		ConstantsOnly: constants,
		Tag:           tag,
		Limit:         limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	printJSON(entries)
}
