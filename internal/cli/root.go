// Package cli implements the rolemind CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/store"
)

var (
	dbPath   string
	roleFlag string
	verbose  bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "rolemind",
	Short: "Per-role persistent memory for conversational agents",
	Long:  "Durable long-term memory for role-played conversational agents. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ROLEMIND_DB or ~/.rolemind/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&roleFlag, "role", "r", "", "Role identifier")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("ROLEMIND_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rolemind", "memory.db")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func openStore() (*store.SQLiteStore, error) {
	log := newLogger()
	return store.NewSQLiteStore(getDBPath(), store.Options{Logger: &log})
}

func requireRole() string {
	if roleFlag == "" {
		exitErr("role", fmt.Errorf("--role is required"))
	}
	return roleFlag
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
