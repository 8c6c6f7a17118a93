package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List all roles present in the store",
		Run:   runRoles,
	}

	RootCmd.AddCommand(cmd)
}

func runRoles(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	roles, err := s.Roles(cmd.Context())
	if err != nil {
		exitErr("roles", err)
	}

	printJSON(roles)
}
