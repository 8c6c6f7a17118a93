package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/model"
)

func init() {
	goalsCmd := &cobra.Command{
		Use:   "goals",
		Short: "Show a role's goals",
		Run:   runGoalsList,
	}

	setCmd := &cobra.Command{
		Use:   "set [description]",
		Short: "Add or update a goal",
		Run:   runGoalsSet,
	}
	setCmd.Flags().String("id", "", "Goal id to update (omit to create)")
	setCmd.Flags().String("status", model.GoalStatusActive, "Goal status")

	goalsCmd.AddCommand(setCmd)
	RootCmd.AddCommand(goalsCmd)
}

func runGoalsList(cmd *cobra.Command, args []string) {
	role := requireRole()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	goals, err := s.Goals(cmd.Context(), role)
	if err != nil {
		exitErr("goals", err)
	}

	printJSON(goals)
}

func runGoalsSet(cmd *cobra.Command, args []string) {
	role := requireRole()
	id, _ := cmd.Flags().GetString("id")
	status, _ := cmd.Flags().GetString("status")

	description := strings.Join(args, " ")
	if strings.TrimSpace(description) == "" {
		exitErr("goals set", fmt.Errorf("description is required"))
	}
	if id == "" {
		id = uuid.NewString()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	goal := model.Goal{ID: id, Description: strings.TrimSpace(description), Status: status}
	if err := s.SetGoals(cmd.Context(), role, []model.Goal{goal}); err != nil {
		exitErr("goals set", err)
	}

	printJSON(goal)
}
