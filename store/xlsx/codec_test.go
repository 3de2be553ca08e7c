package xlsx

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// writeWorkbook creates a workbook at path whose first sheet holds rows.
func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(DefaultSheet, cellName, &values))
	}
	require.NoError(t, f.SaveAs(path))
}

func readWorkbook(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	return rows
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "时间", "任务", "完成度"},
		{"2024.6.10", "9:00-10:00", "会议", ""},
		{"2024.6.10", "8", "早餐", "已完成"},
		{"not a date", "9:00", "跳过", ""},
		{"2024/06/11", "14：00~15：00", "", "进行中"},
		{"2024-06-12", "全天", "休息", "延期"},
	})

	s, err := Load(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12"}, s.Dates())
	assert.Equal(t, []store.Event{
		{Time: "8:00", Task: "早餐", Completion: "已完成"},
		{Time: "9:00 - 10:00", Task: "会议", Completion: "未开始"},
	}, s.Day("2024-06-10"))
	assert.Equal(t, []store.Event{
		{Time: "14:00 - 15:00", Task: "", Completion: "进行中"},
	}, s.Day("2024-06-11"), "blank task is still ingested")
	assert.Equal(t, "休息", s.Day("2024-06-12")[0].Task)
}

func TestLoad_SerialDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "时间", "任务", "完成度"},
		{45453, "9:00", "序列号日期", "未开始"},
	})

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, s.Has("2024-06-10"))
}

func TestLoad_NumericTimeCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "时间", "任务", "完成度"},
		{"2024.6.10", 0.375, "会议", "未开始"},
		{"2024.6.10", "8:00", "早饭", "未开始"},
		{"2024.6.10", 0.5, "午饭", "未开始"},
	})

	// B2 is a typed 9:00 rendered with the built-in h:mm format; B4 keeps
	// the General format.
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	style, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(DefaultSheet, "B2", "B2", style))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	s, err := Load(context.Background(), path)
	require.NoError(t, err)

	day := s.Day("2024-06-10")
	require.Len(t, day, 3)
	assert.Equal(t, []string{"早饭", "会议", "午饭"}, []string{day[0].Task, day[1].Task, day[2].Task})
	assert.Equal(t, 9*60, normalize.TimeToMinutes(day[1].Time))
	assert.NotContains(t, day[1].Time, "0.375")
	assert.Equal(t, "12:00", day[2].Time)
}

func TestLoad_ColumnsByHeaderName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	writeWorkbook(t, path, [][]any{
		{"任务", "备注", "完成度", "日期", "时间"},
		{"会议", "x", "已完成", "2024.6.10", "9:00"},
	})

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []store.Event{{Time: "9:00", Task: "会议", Completion: "已完成"}}, s.Day("2024-06-10"))
}

func TestLoad_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "任务"},
		{"2024.6.10", "会议"},
	})

	_, err := Load(context.Background(), path)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"时间", "完成度"}, missing.Columns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "sub", "absent.xlsx"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	s := store.NewSchedule()
	s.UpsertDay("2024-06-11", []store.Event{{Time: "9:00", Task: "第二天", Completion: "未开始"}})
	s.UpsertDay("2024-06-10", []store.Event{
		{Time: "14:00 - 15:00", Task: "下午", Completion: "已完成"},
		{Time: "9:00 - 10:00", Task: "上午", Completion: "未开始"},
	})
	s.AppendEvent("2024-06-10", store.Event{Time: "12:00", Task: ""})

	require.NoError(t, Save(ctx, s, path))

	assert.Equal(t, [][]string{
		{"日期", "时间", "任务", "完成度"},
		{"2024.6.10", "9:00 - 10:00", "上午", "未开始"},
		{"2024.6.10", "14:00 - 15:00", "下午", "已完成"},
		{"2024.6.11", "9:00", "第二天", "未开始"},
	}, readWorkbook(t, path))
}

func TestSave_OverwritesWholeFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	first := store.NewSchedule()
	first.UpsertDay("2024-06-10", []store.Event{{Time: "9:00", Task: "a", Completion: "未开始"}})
	first.UpsertDay("2024-06-11", []store.Event{{Time: "9:00", Task: "b", Completion: "未开始"}})
	require.NoError(t, Save(ctx, first, path))

	second := store.NewSchedule()
	second.UpsertDay("2024-06-12", []store.Event{{Time: "9:00", Task: "c", Completion: "未开始"}})
	require.NoError(t, Save(ctx, second, path))

	loaded, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-12"}, loaded.Dates())
}

func TestSave_FailureKeepsPreviousFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "记录.xlsx")

	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{{Time: "9:00", Task: "a", Completion: "未开始"}})
	require.NoError(t, Save(ctx, s, path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	require.NoError(t, os.Chmod(dir, 0o500))
	defer os.Chmod(dir, 0o755)

	s.UpsertDay("2024-06-11", []store.Event{{Time: "9:00", Task: "b", Completion: "未开始"}})
	assert.Error(t, Save(ctx, s, path))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{
		{Time: "9:00 - 10:00", Task: "会议", Completion: "未开始"},
		{Time: "全天", Task: "值班", Completion: "进行中"},
		{Time: "13:30 - 15:00", Task: "项目开发", Completion: "已完成"},
	})
	s.UpsertDay("2024-12-01", []store.Event{{Time: "20:00", Task: "复盘", Completion: "待评价"}})

	require.NoError(t, Save(ctx, s, path))
	loaded, err := Load(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
	assert.NoError(t, ValidateRoundTrip(ctx, s, path))
}

func TestValidateRoundTrip_CanonicalizesExpected(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{{Time: "9:00~10:00", Task: "会议", Completion: ""}})
	require.NoError(t, Save(ctx, s, path))

	assert.NoError(t, ValidateRoundTrip(ctx, s, path))
}

func TestValidateRoundTrip_Mismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{{Time: "9:00", Task: "会议", Completion: "未开始"}})
	require.NoError(t, Save(ctx, s, path))

	s.UpsertDay("2024-06-10", []store.Event{
		{Time: "9:00", Task: "会议", Completion: "未开始"},
		{Time: "10:00", Task: "新增", Completion: "未开始"},
	})
	s.UpsertDay("2024-06-11", []store.Event{{Time: "9:00", Task: "未保存", Completion: "未开始"}})

	err := ValidateRoundTrip(ctx, s, path)
	var rt *RoundTripError
	require.ErrorAs(t, err, &rt)
	require.Len(t, rt.Mismatches, 2)
	assert.Equal(t, "2024-06-10", rt.Mismatches[0].Date)
	assert.Equal(t, "2024-06-11", rt.Mismatches[1].Date)
}

func TestCodec(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(filepath.Join(t.TempDir(), "记录.xlsx"))

	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{{Time: "9:00", Task: "会议", Completion: "未开始"}})

	require.NoError(t, c.Save(ctx, s))
	require.NoError(t, c.ValidateRoundTrip(ctx, s))
	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.EventCount())
}

func TestLoadFeedback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "反馈.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "评分", "评论"},
		{"2024.6.10", 4.5, "不错"},
		{"2024.6.11", "很好", ""},
		{"bad", 5, "跳过"},
	})

	fb, err := LoadFeedback(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, store.FeedbackSet{
		"2024-06-10": {Rating: 4.5, Comments: "不错"},
		"2024-06-11": {Rating: store.DefaultRating, Comments: ""},
	}, fb)
}

func TestLoadFeedback_CommentsOptional(t *testing.T) {
	path := filepath.Join(t.TempDir(), "反馈.xlsx")
	writeWorkbook(t, path, [][]any{
		{"日期", "评分"},
		{"2024.6.10", 2},
	})

	fb, err := LoadFeedback(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, store.Feedback{Rating: 2}, fb["2024-06-10"])
}

func TestLoadFeedback_MissingRating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "反馈.xlsx")
	writeWorkbook(t, path, [][]any{{"日期", "评论"}})

	_, err := LoadFeedback(context.Background(), path)
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"评分"}, missing.Columns)
}
