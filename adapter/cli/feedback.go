package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

var (
	feedbackTaskID  string
	feedbackAction  string
	feedbackHistory string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record task feedback to tune future rankings",
	Long: `Records one feedback action (completed, postponed, reordered, deleted,
liked, disliked) and runs a learning step over your completed task history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetContainer()
		out := cmd.OutOrStdout()

		var completed []domain.TaskInput
		if feedbackHistory != "" {
			raw, err := os.ReadFile(feedbackHistory)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &completed); err != nil {
				return fmt.Errorf("failed to parse history file: %w", err)
			}
		}

		weights, err := c.RecordFeedbackHandler.Handle(cmd.Context(), commands.RecordFeedbackCommand{
			UserID:         currentUserID(),
			TaskID:         feedbackTaskID,
			Action:         feedbackAction,
			CompletedTasks: completed,
			Timestamp:      time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Feedback recorded (%s).\n", feedbackAction)
		printWeights(out, weights)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackTaskID, "task", "t", "", "task id the feedback refers to")
	feedbackCmd.Flags().StringVarP(&feedbackAction, "action", "a", "completed", "feedback action")
	feedbackCmd.Flags().StringVar(&feedbackHistory, "history", "", "completed tasks JSON file for the learning step")
	rootCmd.AddCommand(feedbackCmd)
}
