package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/store"
)

var (
	showDate  string
	showStart string
	showEnd   string

	addCompletion string

	brushMode     string
	brushWeekdays []int
	brushStart    string
	brushEnd      string

	slotMinutes int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the schedule, one day or a range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := rangeFromFlags(showDate, showStart, showEnd)
		if err != nil {
			return err
		}
		if err := current.service.Load(cmd.Context()); err != nil {
			return err
		}
		printDays(cmd.OutOrStdout(), current.service.Days(r))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add DATE TIME TASK",
	Short: "Add an event to a day",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		events, err := svc.AddEvent(args[0], store.Event{Time: args[1], Task: args[2], Completion: addCompletion})
		if err != nil {
			return err
		}
		if err := svc.Save(cmd.Context()); err != nil {
			return err
		}
		printDays(cmd.OutOrStdout(), store.Days{args[0]: events})
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete DATE INDEX",
	Short: "Delete the event at INDEX (0-based) of a day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "invalid index %q", args[1])
		}
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		events, err := svc.DeleteEvent(args[0], index)
		if err != nil {
			return err
		}
		if err := svc.Save(cmd.Context()); err != nil {
			return err
		}
		printDays(cmd.OutOrStdout(), store.Days{args[0]: events})
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear DATE",
	Short: "Remove every event of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		if err := svc.ClearDay(args[0]); err != nil {
			return err
		}
		if err := svc.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已清空 %s\n", normalize.DisplayDate(args[0]))
		return nil
	},
}

var brushCmd = &cobra.Command{
	Use:   "brush DATE INDEX",
	Short: "Copy an event to later dates (format brush)",
	Long: `Copy the event at INDEX (0-based) of DATE to later dates, marked 待评价.

  weekly    the given weekdays in each of the next 4 weeks
  biweekly  the first given weekday in weeks +1, +3, +5 and +7
  daily     every day from --start to --end`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "invalid index %q", args[1])
		}
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		copies, err := svc.ApplyBrush(args[0], index, schedule.BrushSpec{
			Mode:     schedule.BrushMode(brushMode),
			Weekdays: brushWeekdays,
			Start:    brushStart,
			End:      brushEnd,
		})
		if err != nil {
			return err
		}
		if err := svc.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已复制 %d 次\n", copies)
		return nil
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts DATE",
	Short: "List overlapping events and free slots of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.service
		if err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		conflicts, err := svc.Conflicts(args[0])
		if err != nil {
			return err
		}
		slots, err := svc.FreeSlots(args[0], slotMinutes)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(conflicts) == 0 {
			fmt.Fprintln(out, "没有时间冲突")
		}
		for _, c := range conflicts {
			fmt.Fprintf(out, "冲突: %s 与 %s 重叠 %d 分钟\n", c.FirstTask, c.SecondTask, c.OverlapMinutes)
		}
		for _, slot := range slots {
			fmt.Fprintf(out, "空闲: %s - %s (%d 分钟)\n", slot.Start, slot.End, slot.Minutes)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "single day, YYYY-MM-DD")
	showCmd.Flags().StringVar(&showStart, "start", "", "first day of the range")
	showCmd.Flags().StringVar(&showEnd, "end", "", "last day of the range")

	addCmd.Flags().StringVar(&addCompletion, "completion", store.StatusNotStarted, "completion status")

	brushCmd.Flags().StringVar(&brushMode, "mode", string(schedule.BrushWeekly), "weekly, biweekly or daily")
	brushCmd.Flags().IntSliceVar(&brushWeekdays, "weekday", nil, "ISO weekdays, 1 = Monday ... 7 = Sunday")
	brushCmd.Flags().StringVar(&brushStart, "start", "", "first day for daily mode")
	brushCmd.Flags().StringVar(&brushEnd, "end", "", "last day for daily mode")

	conflictsCmd.Flags().IntVar(&slotMinutes, "min", 0, "shortest free slot to list, in minutes")
}

// rangeFromFlags turns --date or --start/--end into a range; no flags means
// every day.
func rangeFromFlags(date, start, end string) (*store.DateRange, error) {
	if date != "" {
		if start != "" || end != "" {
			return nil, errors.New("--date cannot be combined with --start or --end")
		}
		start, end = date, date
	}
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	r, err := store.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func printDays(w io.Writer, days store.Days) {
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if len(dates) == 0 {
		fmt.Fprintln(w, "没有日程")
		return
	}
	for _, date := range dates {
		fmt.Fprintln(w, normalize.DisplayDate(date))
		if len(days[date]) == 0 {
			fmt.Fprintln(w, "  (空)")
		}
		for i, ev := range days[date] {
			fmt.Fprintf(w, "  %d. %-15s %s [%s]\n", i, ev.Time, ev.Task, ev.Completion)
		}
	}
}
