package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/server/stats"
	"github.com/ROM1024/2025-BEBOP/store"
)

var (
	feedbackRating   float64
	feedbackComments string

	configOutput string
	configForce  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print schedule statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		feedback, err := svc.Feedback(cmd.Context())
		if err != nil && !errors.Is(err, schedule.ErrFeedbackDisabled) {
			slog.Warn("failed to load feedback", "error", err)
		}
		s := stats.Compute(svc.Days(nil), feedback, current.now())
		fmt.Fprint(cmd.OutOrStdout(), s.GetSummary())
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Daily ratings and comments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		set, err := current.service.Feedback(cmd.Context())
		if err != nil {
			return err
		}
		printFeedback(cmd, set)
		return nil
	},
}

var feedbackSetCmd = &cobra.Command{
	Use:   "set DATE",
	Short: "Record the rating and comments of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedbackRating < 0 || feedbackRating > 5 {
			return errors.Errorf("rating must be between 0 and 5, got %v", feedbackRating)
		}
		set, err := current.service.PutFeedback(cmd.Context(), args[0], store.Feedback{
			Rating:   feedbackRating,
			Comments: feedbackComments,
		})
		if err != nil {
			return err
		}
		printFeedback(cmd, store.FeedbackSet{args[0]: set[args[0]]})
		return nil
	},
}

var feedbackImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge a rating spreadsheet (日期, 评分, 评论) into the feedback file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := current.service.ImportFeedback(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已导入 %d 天的评价\n", n)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
	// The config file may not exist yet, so skip loading it.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config template",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := profile.WriteDefaultConfig(configOutput, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", configOutput)
		return nil
	},
}

func init() {
	feedbackSetCmd.Flags().Float64Var(&feedbackRating, "rating", store.DefaultRating, "rating from 0 to 5")
	feedbackSetCmd.Flags().StringVar(&feedbackComments, "comments", "", "comments of the day")
	feedbackCmd.AddCommand(feedbackSetCmd, feedbackImportCmd)

	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", "bebop.yaml", "path of the config file")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func printFeedback(cmd *cobra.Command, set store.FeedbackSet) {
	dates := make([]string, 0, len(set))
	for date := range set {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := cmd.OutOrStdout()
	if len(dates) == 0 {
		fmt.Fprintln(out, "没有评价")
		return
	}
	for _, date := range dates {
		fb := set[date]
		fmt.Fprintf(out, "%s  %.1f  %s\n", normalize.DisplayDate(date), fb.Rating, fb.Comments)
	}
}
