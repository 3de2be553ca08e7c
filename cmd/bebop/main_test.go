package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/store"
	"github.com/ROM1024/2025-BEBOP/store/xlsx"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestRangeFromFlags(t *testing.T) {
	r, err := rangeFromFlags("", "", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = rangeFromFlags("2024-06-10", "", "")
	require.NoError(t, err)
	assert.Equal(t, &store.DateRange{Start: "2024-06-10", End: "2024-06-10"}, r)

	r, err = rangeFromFlags("", "2024-06-10", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", r.End)

	_, err = rangeFromFlags("2024-06-10", "2024-06-11", "")
	assert.Error(t, err)

	_, err = rangeFromFlags("", "2024-06-11", "2024-06-10")
	assert.ErrorIs(t, err, store.ErrInvalidDateRange)
}

func TestPrintDays(t *testing.T) {
	var buf bytes.Buffer
	printDays(&buf, store.Days{
		"2024-06-11": {{Time: "全天", Task: "出差", Completion: "进行中"}},
		"2024-06-10": {{Time: "9:00", Task: "会议", Completion: "未开始"}},
	})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("2024.6.10")), bytes.Index(buf.Bytes(), []byte("2024.6.11")))
	assert.Contains(t, out, "会议 [未开始]")

	buf.Reset()
	printDays(&buf, store.Days{})
	assert.Equal(t, "没有日程\n", buf.String())
}

func TestCommands_EditAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("SILICONFLOW_API_KEY", "")

	run(t, "--data", dir, "add", "2024-06-10", "10:00-11:00", "写报告")
	run(t, "--data", dir, "add", "2024-06-10", "9:00", "会议")

	saved, err := xlsx.Load(t.Context(), filepath.Join(dir, profile.DefaultScheduleFile))
	require.NoError(t, err)
	events := saved.Day("2024-06-10")
	require.Len(t, events, 2)
	assert.Equal(t, "会议", events[0].Task)
	assert.Equal(t, "10:00 - 11:00", events[1].Time)

	out := run(t, "--data", dir, "show", "--date", "2024-06-10")
	assert.Contains(t, out, "2024.6.10")
	assert.Contains(t, out, "写报告")

	out = run(t, "--data", dir, "brush", "2024-06-10", "0", "--mode", "daily", "--start", "2024-06-11", "--end", "2024-06-12")
	assert.Contains(t, out, "已复制 2 次")

	run(t, "--data", dir, "clear", "2024-06-10")
	saved, err = xlsx.Load(t.Context(), filepath.Join(dir, profile.DefaultScheduleFile))
	require.NoError(t, err)
	assert.False(t, saved.Has("2024-06-10"))
	assert.Equal(t, store.StatusPendingReview, saved.Day("2024-06-12")[0].Completion)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bebop.yaml")
	out := run(t, "config", "init", "--output", path)
	assert.Contains(t, out, path)

	rootCmd.SetArgs([]string{"config", "init", "--output", path})
	assert.ErrorIs(t, rootCmd.Execute(), profile.ErrConfigExists)
}
