package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ROM1024/2025-BEBOP/plugin/ical"
	apierrors "github.com/ROM1024/2025-BEBOP/server/internal/errors"
	"github.com/ROM1024/2025-BEBOP/store"
)

// OptimizeRequest selects the range to optimize. An empty body means the
// calendar week after today.
type OptimizeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Optimize rebalances a range with the model and saves the merged result.
// POST /api/v1/optimize
func (s *APIV1Service) Optimize(c echo.Context) error {
	var req OptimizeRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return apierrors.InvalidArgument("invalid request body")
		}
	}

	ctx := c.Request().Context()
	if req.Start == "" && req.End == "" {
		result, err := s.Service.OptimizeNextWeek(ctx, s.Now())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}

	r, err := store.NewDateRange(req.Start, req.End)
	if err != nil {
		return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid date range")
	}
	result, err := s.Service.OptimizeRange(ctx, r)
	if err != nil {
		return err
	}
	slog.Info("optimize merged", "range", r.String(), "run_id", result.RunID, "merged", result.Merged)
	return c.JSON(http.StatusOK, result)
}

// ValidateExport saves and re-reads the spreadsheet.
// POST /api/v1/export/validate
func (s *APIV1Service) ValidateExport(c echo.Context) error {
	if err := s.Service.ValidateExport(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid": true,
		"days":  s.Service.Schedule().Len(),
	})
}

// ExportICS renders the schedule, or ?start..?end of it, as iCalendar.
// GET /api/v1/export/ics
func (s *APIV1Service) ExportICS(c echo.Context) error {
	r, err := rangeFromQuery(c)
	if err != nil {
		return err
	}
	body := ical.Export(s.Service.Schedule(), r, s.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="schedule.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
