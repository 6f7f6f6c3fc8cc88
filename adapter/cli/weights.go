package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show your adaptive scoring weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetContainer()
		out := cmd.OutOrStdout()

		result, err := c.GetWeightsHandler.Handle(cmd.Context(), queries.GetWeightsQuery{
			UserID: currentUserID(),
		})
		if err != nil {
			return err
		}

		printWeights(out, result.Weights)

		p := result.Pattern
		fmt.Fprintf(out, "\nTime efficiency:     %.2f\n", p.TimeEfficiency)
		fmt.Fprintf(out, "Category efficiency: %.2f\n", p.CategoryEfficiencyMean)

		if len(p.PreferredTimes) > 0 {
			buckets := make([]string, 0, len(p.PreferredTimes))
			for b := range p.PreferredTimes {
				buckets = append(buckets, b)
			}
			sort.Slice(buckets, func(a, b int) bool {
				return p.PreferredTimes[buckets[a]] > p.PreferredTimes[buckets[b]]
			})
			fmt.Fprintln(out, "\nPreferred hours:")
			for _, b := range buckets {
				fmt.Fprintf(out, "  %-6s %d completions\n", b, p.PreferredTimes[b])
			}
		}
		if p.LastUpdated != nil {
			fmt.Fprintf(out, "\nLast learning step: %s\n", p.LastUpdated.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func printWeights(out io.Writer, w domain.AdaptiveWeights) {
	fmt.Fprintln(out, "Adaptive weights:")
	fmt.Fprintf(out, "  urgency        %5.1f%%\n", w.Urgency*100)
	fmt.Fprintf(out, "  impact         %5.1f%%\n", w.Impact*100)
	fmt.Fprintf(out, "  complexity     %5.1f%%\n", w.Complexity*100)
	fmt.Fprintf(out, "  context        %5.1f%%\n", w.Context*100)
	fmt.Fprintf(out, "  time awareness %5.1f%%\n", w.TimeAwareness*100)
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}
