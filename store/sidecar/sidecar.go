// Package sidecar persists JSON side files next to the schedule spreadsheet:
// a schedule snapshot consumed by the web client and the daily feedback log.
package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Default side file names, relative to the data directory.
const (
	ScheduleFile = "schedules.json"
	FeedbackFile = "feedbacks.json"
)

// Activity is one event in the side file layout. The task is stored as "type".
type Activity struct {
	Type       string `json:"type"`
	Time       string `json:"time"`
	Completion string `json:"completion"`
}

// DayEntry wraps the activities of one day.
type DayEntry struct {
	Activities []Activity `json:"activities"`
}

// InvalidKeyError is returned when a side file contains a key that is not a
// date key.
type InvalidKeyError struct {
	Path string
	Key  string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("%s: %q is not a YYYY-MM-DD date", e.Path, e.Key)
}

// SaveSchedule writes days to path as {date: {"activities": [...]}}.
func SaveSchedule(ctx context.Context, path string, days store.Days) error {
	doc := make(map[string]DayEntry, len(days))
	for date, events := range days {
		entry := DayEntry{Activities: make([]Activity, 0, len(events))}
		for _, ev := range events {
			entry.Activities = append(entry.Activities, Activity{Type: ev.Task, Time: ev.Time, Completion: ev.Completion})
		}
		doc[date] = entry
	}
	return writeJSON(ctx, path, doc)
}

// LoadSchedule reads a schedule side file. A missing file yields empty days.
func LoadSchedule(ctx context.Context, path string) (store.Days, error) {
	var doc map[string]DayEntry
	if err := readJSON(ctx, path, &doc); err != nil {
		return nil, err
	}

	days := make(store.Days, len(doc))
	for _, date := range sortedKeys(doc) {
		if !normalize.IsDateKey(date) {
			return nil, &InvalidKeyError{Path: path, Key: date}
		}
		events := make([]store.Event, 0, len(doc[date].Activities))
		for _, a := range doc[date].Activities {
			events = append(events, store.Event{Time: a.Time, Task: a.Type, Completion: a.Completion})
		}
		days[date] = events
	}
	return days, nil
}

// SaveFeedback writes the feedback set to path.
func SaveFeedback(ctx context.Context, path string, set store.FeedbackSet) error {
	return writeJSON(ctx, path, set)
}

// LoadFeedback reads the feedback side file. A missing file yields an empty
// set.
func LoadFeedback(ctx context.Context, path string) (store.FeedbackSet, error) {
	set := store.FeedbackSet{}
	if err := readJSON(ctx, path, &set); err != nil {
		return nil, err
	}
	for _, date := range sortedKeys(set) {
		if !normalize.IsDateKey(date) {
			return nil, &InvalidKeyError{Path: path, Key: date}
		}
	}
	return set, nil
}

// UpdateFeedback sets the feedback of one date, keeping the rest of the file.
// The read and the write happen under one lock.
func UpdateFeedback(ctx context.Context, path, date string, fb store.Feedback) (store.FeedbackSet, error) {
	if !normalize.IsDateKey(date) {
		return nil, &InvalidKeyError{Path: path, Key: date}
	}

	var set store.FeedbackSet
	err := fileutil.WithLock(ctx, path, func() error {
		set = store.FeedbackSet{}
		if err := decodeFile(path, &set); err != nil {
			return err
		}
		set[date] = fb
		return encodeFile(path, set)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func writeJSON(ctx context.Context, path string, v any) error {
	return fileutil.WithLock(ctx, path, func() error {
		return encodeFile(path, v)
	})
}

func readJSON(ctx context.Context, path string, v any) error {
	return fileutil.WithLock(ctx, path, func() error {
		return decodeFile(path, v)
	})
}

func encodeFile(path string, v any) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return errors.Wrapf(enc.Encode(v), "encode %s", path)
	})
}

// decodeFile leaves v untouched when path does not exist.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decode %s", path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
