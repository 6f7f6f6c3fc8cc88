package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

var (
	prioritizeFile string
	prioritizeJSON bool
)

// prioritizeInput is the accepted file shape: either a bare task array or a
// full command document with history.
type prioritizeInput struct {
	Tasks          []domain.TaskInput `json:"tasks"`
	History        []domain.TaskInput `json:"history,omitempty"`
	CompletedTasks []domain.TaskInput `json:"completedTasks,omitempty"`
}

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Rank a batch of tasks",
	Long: `Reads a JSON task list and prints it in recommended execution order,
with insights about the batch. Use "-" to read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetContainer()
		out := cmd.OutOrStdout()

		raw, err := readInput(prioritizeFile)
		if err != nil {
			return err
		}

		var in prioritizeInput
		if err := json.Unmarshal(raw, &in); err != nil {
			// Also accept a bare task array
			var tasks []domain.TaskInput
			if arrErr := json.Unmarshal(raw, &tasks); arrErr != nil {
				return fmt.Errorf("failed to parse task file: %w", err)
			}
			in.Tasks = tasks
		}

		result, err := observability.TimeOperationResult(logger, c.Metrics, "prioritize_tasks",
			func() (*commands.PrioritizeTasksResult, error) {
				return c.PrioritizeTasksHandler.Handle(cmd.Context(), commands.PrioritizeTasksCommand{
					Tasks:          in.Tasks,
					UserID:         currentUserID(),
					History:        in.History,
					CompletedTasks: in.CompletedTasks,
				})
			})
		if err != nil {
			return err
		}

		if prioritizeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		for _, t := range result.PrioritizedTasks {
			line := fmt.Sprintf("%2d. [%s] %s", t.Rank, t.Priority, t.Title)
			if t.DueDate != "" {
				line += fmt.Sprintf(" (due %s)", t.DueDate)
			}
			fmt.Fprintln(out, line)
		}
		if len(result.Insights) > 0 {
			fmt.Fprintln(out)
			for _, insight := range result.Insights {
				fmt.Fprintf(out, "  %s\n", insight)
			}
		}
		if result.Note != "" {
			fmt.Fprintf(out, "\n  Note: %s\n", result.Note)
		}
		return nil
	},
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	prioritizeCmd.Flags().StringVarP(&prioritizeFile, "file", "f", "-", "task list JSON file (\"-\" for stdin)")
	prioritizeCmd.Flags().BoolVar(&prioritizeJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(prioritizeCmd)
}
