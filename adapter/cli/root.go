// Package cli is the cobra command surface for momentum.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/momentum/internal/app"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

var (
	verbose   bool
	userFlag  string
	logger    *slog.Logger
	container *app.Container
)

type startedAtKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Momentum - Adaptive Task Prioritization",
	Long: `Momentum ranks your task list by urgency, impact, effort, and your
own completion patterns, learning from feedback as you work.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := observability.NewRequestContext(cmd.Context(), "")
		ctx = observability.WithUserID(ctx, currentUserID())
		cmd.SetContext(context.WithValue(ctx, startedAtKey{}, time.Now()))
		logger.InfoContext(ctx, "command start",
			"command", cmd.CommandPath(),
			"correlation_id", observability.CorrelationIDFromContext(ctx),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		startedAt, ok := ctx.Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		logger.InfoContext(ctx, "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(startedAt).Milliseconds(),
		)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user id (defaults to MOMENTUM_USER_ID)")
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// SetContainer injects the application container.
func SetContainer(c *app.Container) {
	container = c
}

// GetContainer returns the application container.
func GetContainer() *app.Container {
	return container
}

// currentUserID resolves the effective user for a command.
func currentUserID() string {
	if userFlag != "" {
		return userFlag
	}
	if container != nil {
		return container.Config.UserID
	}
	return "default"
}
