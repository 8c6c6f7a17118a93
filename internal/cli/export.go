package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/store"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a role's memories, traits, and goals as JSON",
		Run:   runExport,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a previously exported role",
		Long:  "Import a role export from a file or stdin. Entries are upserted by id.",
		Run:   runImport,
	}

	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	role := requireRole()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exp, err := s.ExportRole(cmd.Context(), role)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(exp)
}

func runImport(cmd *cobra.Command, args []string) {
	role := requireRole()

	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("import", err)
	}

	var exp store.RoleExport
	if err := json.Unmarshal(data, &exp); err != nil {
		exitErr("import", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.ImportRole(cmd.Context(), role, &exp)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", n)
}
