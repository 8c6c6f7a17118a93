package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	traitsCmd := &cobra.Command{
		Use:   "traits",
		Short: "Show a role's traits",
		Run:   runTraitsList,
	}

	setCmd := &cobra.Command{
		Use:   "set name=value [name=value...]",
		Short: "Add or update traits",
		Run:   runTraitsSet,
	}

	traitsCmd.AddCommand(setCmd)
	RootCmd.AddCommand(traitsCmd)
}

func runTraitsList(cmd *cobra.Command, args []string) {
	role := requireRole()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	traits, err := s.Traits(cmd.Context(), role)
	if err != nil {
		exitErr("traits", err)
	}

	printJSON(traits)
}

func runTraitsSet(cmd *cobra.Command, args []string) {
	role := requireRole()
	if len(args) == 0 {
		exitErr("traits set", fmt.Errorf("at least one name=value pair is required"))
	}

	traits := map[string]string{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			exitErr("traits set", fmt.Errorf("invalid pair %q, expected name=value", arg))
		}
		traits[name] = strings.TrimSpace(value)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.SetTraits(cmd.Context(), role, traits); err != nil {
		exitErr("traits set", err)
	}

	fmt.Printf(`{"ok":true,"updated":%d}`+"\n", len(traits))
}
