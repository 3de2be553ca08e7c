package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
	"github.com/ROM1024/2025-BEBOP/plugin/ical"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/store"
)

var (
	optimizeStart string
	optimizeEnd   string

	icsStart  string
	icsEnd    string
	icsOutput string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rebalance next week (or --start..--end) with the LLM",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc := current.service

		var (
			result *schedule.OptimizeResult
			err    error
		)
		if optimizeStart == "" && optimizeEnd == "" {
			result, err = svc.OptimizeNextWeek(ctx, current.now())
		} else {
			var r store.DateRange
			r, err = store.NewDateRange(optimizeStart, optimizeEnd)
			if err != nil {
				return err
			}
			result, err = svc.OptimizeRange(ctx, r)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "优化完成 %s (run %s)，更新 %d 天\n", result.Range, result.RunID, result.Merged)
		printDays(out, result.Days)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Save the spreadsheet and check it reads back identically",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		if err := svc.ValidateExport(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "导出验证通过：%d 天，%d 项\n",
			svc.Schedule().Len(), svc.Schedule().EventCount())
		return nil
	},
}

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export the schedule as iCalendar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := rangeFromFlags("", icsStart, icsEnd)
		if err != nil {
			return err
		}
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		body := ical.Export(svc.Schedule(), r, current.now())

		if icsOutput == "" || icsOutput == "-" {
			_, err := io.WriteString(cmd.OutOrStdout(), body)
			return err
		}
		err = fileutil.WriteAtomic(icsOutput, 0o644, func(w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "write %s", icsOutput)
		}
		fmt.Fprintf(os.Stderr, "已导出 %s\n", icsOutput)
		return nil
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeStart, "start", "", "first day to optimize, YYYY-MM-DD")
	optimizeCmd.Flags().StringVar(&optimizeEnd, "end", "", "last day to optimize, YYYY-MM-DD")
	optimizeCmd.MarkFlagsRequiredTogether("start", "end")

	icsCmd.Flags().StringVar(&icsStart, "start", "", "first day to export")
	icsCmd.Flags().StringVar(&icsEnd, "end", "", "last day to export")
	icsCmd.Flags().StringVarP(&icsOutput, "output", "o", "", `output file, "-" for stdout`)
}
