package xlsx

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Feedback sheet headers. 评论 is optional.
const (
	ColumnRating   = "评分"
	ColumnComments = "评论"
)

// LoadFeedback reads a daily feedback sheet with columns 日期 and 评分, and an
// optional 评论. A rating that does not parse becomes store.DefaultRating.
func LoadFeedback(ctx context.Context, path string) (store.FeedbackSet, error) {
	var out store.FeedbackSet
	err := fileutil.WithLock(ctx, path, func() error {
		sh, err := readRows(path)
		if err != nil {
			return err
		}

		index, missing := headerIndex(sh.raw, []string{ColumnDate, ColumnRating})
		if len(missing) > 0 {
			return &MissingColumnsError{Path: path, Columns: missing}
		}
		commentsCol, hasComments := index[ColumnComments]
		if !hasComments {
			commentsCol = -1
		}

		out = store.FeedbackSet{}
		for i := 1; i < len(sh.raw); i++ {
			row := sh.raw[i]
			if isBlankRow(row) {
				continue
			}
			date, ok := normalize.Date(cell(row, index[ColumnDate]))
			if !ok {
				slog.Warn("skipping feedback row with unparseable date", "path", path, "row", i+1)
				continue
			}

			rating, err := strconv.ParseFloat(strings.TrimSpace(cell(row, index[ColumnRating])), 64)
			if err != nil {
				rating = store.DefaultRating
			}

			out[date] = store.Feedback{
				Rating:   rating,
				Comments: sh.text(i, commentsCol),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
