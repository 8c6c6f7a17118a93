package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolemind/rolemind/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a memory for a role. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("type", "t", "semantic", "Memory type: episodic or semantic")
	cmd.Flags().StringP("keywords", "k", "", "Comma-separated trigger keywords")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("topics", "", "Comma-separated related topics")
	cmd.Flags().String("emotions", "", "Comma-separated emotional context markers")
	cmd.Flags().IntP("priority", "p", model.DefaultPriority, "Priority 0-100")
	cmd.Flags().Bool("constant", false, "Always recall, never evict")
	cmd.Flags().String("source", "", "Memory source (default: conversation)")
	cmd.Flags().String("id", "", "Entry id to update in place")

	RootCmd.AddCommand(cmd)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runAdd(cmd *cobra.Command, cmdArgs []string) {
	role := requireRole()
	memType, _ := cmd.Flags().GetString("type")
	keywords, _ := cmd.Flags().GetString("keywords")
	tags, _ := cmd.Flags().GetString("tags")
	topics, _ := cmd.Flags().GetString("topics")
	emotions, _ := cmd.Flags().GetString("emotions")
	priority, _ := cmd.Flags().GetInt("priority")
	constant, _ := cmd.Flags().GetBool("constant")
	source, _ := cmd.Flags().GetString("source")
	id, _ := cmd.Flags().GetString("id")

	// Content: positional arg first, then stdin
	var content string
	if len(cmdArgs) > 0 {
		content = strings.Join(cmdArgs, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}

	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	entry, err := s.Add(cmd.Context(), role, &model.MemoryEntry{
		ID:               id,
		Type:             model.MemoryType(memType),
		Content:          strings.TrimSpace(content),
		Keywords:         splitCSV(keywords),
		Tags:             splitCSV(tags),
		RelatedTopics:    splitCSV(topics),
		EmotionalContext: splitCSV(emotions),
		Priority:         priority,
		IsConstant:       constant,
		Source:           source,
		RelevanceWeight:  model.DefaultRelevanceWeight,
		EmotionalWeight:  model.DefaultEmotionalWeight,
		TimeDecayFactor:  model.DefaultTimeDecayFactor,
	})
	if err != nil {
		exitErr("add", err)
	}

	printJSON(entry)
}
