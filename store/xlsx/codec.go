// Package xlsx reads and writes the schedule spreadsheet (记录.xlsx).
//
// The first row of the first sheet is a header row. Columns are located by
// header text, so their position in the file does not matter on load; saves
// always write them in the fixed order 日期, 时间, 任务, 完成度.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Header text of each column, by semantic role.
const (
	ColumnDate       = "日期"
	ColumnTime       = "时间"
	ColumnTask       = "任务"
	ColumnCompletion = "完成度"
)

// DefaultSheet is the sheet name written by Save.
const DefaultSheet = "Sheet1"

// Columns is the fixed column order of a saved file.
var Columns = []string{ColumnDate, ColumnTime, ColumnTask, ColumnCompletion}

// MissingColumnsError reports required headers absent from the file. Nothing
// is loaded when it is returned.
type MissingColumnsError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Path, strings.Join(e.Columns, ", "))
}

// Load reads the schedule at path. A missing file yields an error wrapping
// fs.ErrNotExist. Rows whose date cannot be parsed are skipped and logged.
func Load(ctx context.Context, path string) (*store.Schedule, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}
	var schedule *store.Schedule
	err := fileutil.WithLock(ctx, path, func() error {
		sh, err := readRows(path)
		if err != nil {
			return err
		}
		schedule, err = decodeRows(path, sh)
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// Save overwrites path with one row per event of s. Events with an empty task
// are not written. The previous file survives any failure.
func Save(ctx context.Context, s *store.Schedule, path string) error {
	f := encode(s)
	defer f.Close()

	return fileutil.WithLock(ctx, path, func() error {
		return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
			return errors.Wrap(f.Write(w), "write workbook")
		})
	})
}

func checkExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(fs.ErrNotExist, "schedule file %s", path)
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	return nil
}

func readRows(path string) (*sheet, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &sheet{}, nil
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	return &sheet{raw: raw, shown: shown}, nil
}

// sheet holds the first worksheet twice: raw values keep date serials and
// numbers intact, shown values are rendered through the cell number format.
type sheet struct {
	raw   [][]string
	shown [][]string
}

// text returns the displayed value of a cell, or the raw one when the two
// reads disagree on the row layout.
func (s *sheet) text(row, col int) string {
	if col < 0 {
		return ""
	}
	if row < len(s.shown) && col < len(s.shown[row]) {
		return s.shown[row][col]
	}
	return cell(s.raw[row], col)
}

// timeText returns the time cell as the user sees it. Excel stores a typed
// time as a fraction of a day; when the number format leaves it numeric the
// fraction is turned back into H:MM.
func (s *sheet) timeText(row, col int) string {
	shown := s.text(row, col)
	v, err := strconv.ParseFloat(strings.TrimSpace(cell(s.raw[row], col)), 64)
	if err != nil || v <= 0 || v >= 1 {
		return shown
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(shown), 64); err != nil {
		return shown
	}
	minutes := int(math.Round(v * 24 * 60))
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func decodeRows(path string, sh *sheet) (*store.Schedule, error) {
	index, missing := headerIndex(sh.raw, Columns)
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Path: path, Columns: missing}
	}

	schedule := store.NewSchedule()
	skipped := 0
	for i := 1; i < len(sh.raw); i++ {
		row := sh.raw[i]
		if isBlankRow(row) {
			continue
		}

		rawDate := cell(row, index[ColumnDate])
		date, ok := normalize.Date(rawDate)
		if !ok {
			// Spreadsheet row numbers are 1-based and the header is row 1.
			slog.Warn("skipping row with unparseable date", "path", path, "row", i+1, "date", rawDate)
			skipped++
			continue
		}

		schedule.AppendEvent(date, store.Event{
			Time:       normalize.Time(sh.timeText(i, index[ColumnTime])),
			Task:       orDefault(sh.text(i, index[ColumnTask]), ""),
			Completion: orDefault(sh.text(i, index[ColumnCompletion]), store.StatusNotStarted),
		})
	}

	slog.Debug("loaded schedule", "path", path, "days", schedule.Len(), "events", schedule.EventCount(), "skipped", skipped)
	return schedule, nil
}

func encode(s *store.Schedule) *excelize.File {
	f := excelize.NewFile()

	row := 1
	setRow(f, row, []any{ColumnDate, ColumnTime, ColumnTask, ColumnCompletion})
	for _, date := range s.Dates() {
		display := normalize.DisplayDate(date)
		for _, ev := range s.Day(date) {
			if ev.Task == "" {
				continue
			}
			row++
			setRow(f, row, []any{display, ev.Time, ev.Task, ev.Completion})
		}
	}
	return f
}

func setRow(f *excelize.File, row int, values []any) {
	start, _ := excelize.CoordinatesToCellName(1, row)
	// Only fails for an unknown sheet or invalid cell, neither possible here.
	_ = f.SetSheetRow(DefaultSheet, start, &values)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// orDefault returns fallback for blank cells and the cell verbatim otherwise.
func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Codec binds Load, Save and ValidateRoundTrip to one file.
type Codec struct {
	Path string
}

// NewCodec returns a codec for path.
func NewCodec(path string) *Codec {
	return &Codec{Path: path}
}

func (c *Codec) Load(ctx context.Context) (*store.Schedule, error) {
	return Load(ctx, c.Path)
}

func (c *Codec) Save(ctx context.Context, s *store.Schedule) error {
	return Save(ctx, s, c.Path)
}

func (c *Codec) ValidateRoundTrip(ctx context.Context, s *store.Schedule) error {
	return ValidateRoundTrip(ctx, s, c.Path)
}
