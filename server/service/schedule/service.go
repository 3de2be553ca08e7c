// Package schedule provides the schedule session: loading and saving the
// spreadsheet, day edits, the format brush and the optimize flow.
//
// The service layer owns the in-memory store and is the only writer of the
// spreadsheet, so the CLI and the HTTP API share one consistent view.
package schedule

import (
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
	"github.com/ROM1024/2025-BEBOP/store/sidecar"
	"github.com/ROM1024/2025-BEBOP/store/xlsx"
)

// Config wires a Service. Optimizer may be nil when no LLM is configured.
// Empty side file paths disable the matching feature.
type Config struct {
	Codec           Codec
	Optimizer       Optimizer
	ScheduleSidecar string
	FeedbackSidecar string
	Logger          *slog.Logger
}

type service struct {
	// fileMu serializes whole-file operations. The schedule has its own lock
	// for reads and single-day edits.
	fileMu   sync.Mutex
	schedule *store.Schedule
	modified atomic.Bool

	codec           Codec
	optimizer       Optimizer
	scheduleSidecar string
	feedbackSidecar string
	logger          *slog.Logger
}

// NewService creates a new schedule service with an empty schedule. Call
// Load to read the spreadsheet.
func NewService(cfg Config) Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		schedule:        store.NewSchedule(),
		codec:           cfg.Codec,
		optimizer:       cfg.Optimizer,
		scheduleSidecar: cfg.ScheduleSidecar,
		feedbackSidecar: cfg.FeedbackSidecar,
		logger:          logger,
	}
}

func (s *service) Load(ctx context.Context) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.loadLocked(ctx)
}

func (s *service) loadLocked(ctx context.Context) error {
	loaded, err := s.codec.Load(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("schedule file not found, starting empty")
		s.schedule.ReplaceAll(nil)
	case err != nil:
		return errors.Wrap(err, "load schedule")
	default:
		s.schedule.ReplaceAll(loaded.Snapshot())
	}
	s.modified.Store(false)
	s.logger.Debug("schedule loaded", "days", s.schedule.Len(), "events", s.schedule.EventCount())
	return nil
}

func (s *service) Save(ctx context.Context) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.saveLocked(ctx)
}

func (s *service) saveLocked(ctx context.Context) error {
	if err := s.codec.Save(ctx, s.schedule); err != nil {
		return errors.Wrap(err, "save schedule")
	}
	if s.scheduleSidecar != "" {
		// The spreadsheet is authoritative; a failed snapshot only warns.
		if err := sidecar.SaveSchedule(ctx, s.scheduleSidecar, s.schedule.Snapshot()); err != nil {
			s.logger.Warn("failed to write schedule snapshot", "path", s.scheduleSidecar, "error", err)
		}
	}
	s.modified.Store(false)
	s.logger.Debug("schedule saved", "days", s.schedule.Len(), "events", s.schedule.EventCount())
	return nil
}

func (s *service) Close(ctx context.Context) error {
	if !s.Modified() {
		return nil
	}
	return s.Save(ctx)
}

func (s *service) Modified() bool {
	return s.modified.Load()
}

func (s *service) Schedule() *store.Schedule {
	return s.schedule
}

func (s *service) Day(date string) ([]store.Event, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return s.schedule.Day(date), nil
}

func (s *service) Days(r *store.DateRange) store.Days {
	all := s.schedule.Snapshot()
	if r == nil {
		return all
	}
	out := make(store.Days)
	for date, events := range all {
		if r.Contains(date) {
			out[date] = events
		}
	}
	return out
}

// SaveDay replaces a day with editor rows. Rows without a task are dropped,
// a blank time becomes all-day and a blank completion becomes not started.
func (s *service) SaveDay(date string, rows []store.Event) ([]store.Event, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	events := make([]store.Event, 0, len(rows))
	for _, row := range rows {
		task := strings.TrimSpace(row.Task)
		if task == "" {
			continue
		}
		events = append(events, store.Event{
			Time:       orDefault(normalize.Time(row.Time), store.AllDay),
			Task:       task,
			Completion: orDefault(strings.TrimSpace(row.Completion), store.StatusNotStarted),
		})
	}
	s.schedule.UpsertDay(date, events)
	s.modified.Store(true)
	return s.schedule.Day(date), nil
}

func (s *service) AddEvent(date string, ev store.Event) ([]store.Event, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.Task) == "" {
		return nil, ErrEmptyTask
	}
	s.schedule.AppendEvent(date, store.Event{
		Time:       orDefault(normalize.Time(ev.Time), store.AllDay),
		Task:       strings.TrimSpace(ev.Task),
		Completion: orDefault(strings.TrimSpace(ev.Completion), store.StatusNotStarted),
	})
	s.modified.Store(true)
	return s.schedule.Day(date), nil
}

func (s *service) DeleteEvent(date string, index int) ([]store.Event, error) {
	events, err := s.eventAt(date, index)
	if err != nil {
		return nil, err
	}
	remaining := append(events[:index:index], events[index+1:]...)
	s.schedule.UpsertDay(date, remaining)
	s.modified.Store(true)
	return s.schedule.Day(date), nil
}

func (s *service) ClearDay(date string) error {
	if err := checkDate(date); err != nil {
		return err
	}
	s.schedule.DeleteDay(date)
	s.modified.Store(true)
	return nil
}

func (s *service) ApplyBrush(date string, index int, spec BrushSpec) (int, error) {
	events, err := s.eventAt(date, index)
	if err != nil {
		return 0, err
	}
	source := events[index]
	if strings.TrimSpace(source.Task) == "" {
		return 0, ErrEmptyTask
	}

	targets, err := BrushTargets(date, spec)
	if err != nil {
		return 0, err
	}
	for _, target := range targets {
		s.schedule.AppendEvent(target, store.Event{
			Time:       source.Time,
			Task:       source.Task,
			Completion: store.StatusPendingReview,
		})
	}
	if len(targets) > 0 {
		s.modified.Store(true)
	}
	s.logger.Info("format brush applied", "date", date, "mode", spec.Mode, "copies", len(targets))
	return len(targets), nil
}

func (s *service) Conflicts(date string) ([]Conflict, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return DetectConflicts(s.schedule.Day(date)), nil
}

func (s *service) FreeSlots(date string, minMinutes int) ([]TimeSlot, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return FreeSlots(s.schedule.Day(date), minMinutes), nil
}

func (s *service) OptimizeNextWeek(ctx context.Context, now time.Time) (*OptimizeResult, error) {
	return s.OptimizeRange(ctx, store.NextWeek(now))
}

// OptimizeRange reloads the file first and refuses to run while there are
// unsaved edits. The file lock is not held while the model is thinking, so
// concurrent requests for the same range can share one model call.
func (s *service) OptimizeRange(ctx context.Context, r store.DateRange) (*OptimizeResult, error) {
	if s.optimizer == nil {
		return nil, ErrOptimizerDisabled
	}

	s.fileMu.Lock()
	if s.Modified() {
		s.fileMu.Unlock()
		return nil, errors.Wrapf(ErrUnsavedChanges, "range %s", r)
	}
	err := s.loadLocked(ctx)
	s.fileMu.Unlock()
	if err != nil {
		return nil, err
	}

	if s.schedule.Slice(r).Count() == 0 {
		return nil, errors.Wrapf(ErrNothingToOptimize, "range %s", r)
	}

	rev, err := s.optimizer.Optimize(ctx, s.schedule, r)
	if err != nil {
		return nil, err
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	before := s.schedule.Snapshot()
	merged := s.schedule.Merge(rev.Days, r)
	if err := s.saveLocked(ctx); err != nil {
		s.schedule.Restore(before)
		return nil, err
	}
	s.logger.Info("optimize merged", "run_id", rev.RunID, "range", r.Key(), "days", merged)

	return &OptimizeResult{
		RunID:  rev.RunID,
		Range:  r,
		Merged: merged,
		Days:   s.schedule.Slice(r),
	}, nil
}

func (s *service) ValidateExport(ctx context.Context) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	return s.codec.ValidateRoundTrip(ctx, s.schedule)
}

func (s *service) Feedback(ctx context.Context) (store.FeedbackSet, error) {
	if s.feedbackSidecar == "" {
		return nil, ErrFeedbackDisabled
	}
	set, err := sidecar.LoadFeedback(ctx, s.feedbackSidecar)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = store.FeedbackSet{}
	}
	return set, nil
}

func (s *service) PutFeedback(ctx context.Context, date string, fb store.Feedback) (store.FeedbackSet, error) {
	if s.feedbackSidecar == "" {
		return nil, ErrFeedbackDisabled
	}
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return sidecar.UpdateFeedback(ctx, s.feedbackSidecar, date, fb)
}

func (s *service) ImportFeedback(ctx context.Context, path string) (int, error) {
	if s.feedbackSidecar == "" {
		return 0, ErrFeedbackDisabled
	}
	imported, err := xlsx.LoadFeedback(ctx, path)
	if err != nil {
		return 0, err
	}
	set, err := s.Feedback(ctx)
	if err != nil {
		return 0, err
	}
	for date, fb := range imported {
		set[date] = fb
	}
	if err := sidecar.SaveFeedback(ctx, s.feedbackSidecar, set); err != nil {
		return 0, err
	}
	s.logger.Info("feedback imported", "path", path, "days", len(imported))
	return len(imported), nil
}

func (s *service) eventAt(date string, index int) ([]store.Event, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	events := s.schedule.Day(date)
	if index < 0 || index >= len(events) {
		return nil, errors.Wrapf(ErrEventNotFound, "%s #%d", date, index)
	}
	return events, nil
}

func checkDate(date string) error {
	if !normalize.IsDateKey(date) {
		return errors.Wrapf(ErrInvalidDate, "%q", date)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
