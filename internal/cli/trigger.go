package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/trigger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trigger [message]",
		Short: "Run a trigger pass against a user message",
		Long:  "Score a role's memories against a message and print the selection that would be injected.",
		Run:   runTrigger,
	}

	cmd.Flags().Float64("min-score", trigger.DefaultConfig().MinScore, "Minimum score for non-constant entries")
	cmd.Flags().Int("max", trigger.DefaultConfig().MaxEntries, "Selection cap (constants exempt)")
	cmd.Flags().Duration("half-life", trigger.DefaultConfig().DecayHalfLife, "Recency decay half-life")
	cmd.Flags().Int("budget", trigger.DefaultConfig().CharBudget, "Char budget for rendered output")
	cmd.Flags().Bool("scores", false, "Log per-candidate scores")

	RootCmd.AddCommand(cmd)
}

func runTrigger(cmd *cobra.Command, args []string) {
	role := requireRole()
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	maxEntries, _ := cmd.Flags().GetInt("max")
	halfLife, _ := cmd.Flags().GetDuration("half-life")
	budget, _ := cmd.Flags().GetInt("budget")
	scores, _ := cmd.Flags().GetBool("scores")

	message := strings.Join(args, " ")
	if strings.TrimSpace(message) == "" {
		exitErr("trigger", fmt.Errorf("message is required"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	log := newLogger()
	engine := trigger.NewEngine(s, trigger.Config{
		MinScore:      minScore,
		MaxEntries:    maxEntries,
		DecayHalfLife: halfLife,
		CharBudget:    budget,
		Debug:         scores || verbose,
	}, &log)

	result, err := engine.Trigger(cmd.Context(), role, message)
	if err != nil {
		exitErr("trigger", err)
	}

	printJSON(result)
}
