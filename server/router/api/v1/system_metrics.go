package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ROM1024/2025-BEBOP/internal/observability"
	"github.com/ROM1024/2025-BEBOP/server/stats"
)

// MetricsOverviewResponse represents the overview of optimize runs.
type MetricsOverviewResponse struct {
	observability.MetricsSnapshot
	Modified bool `json:"modified"`
	Days     int  `json:"days"`
	Events   int  `json:"events"`
}

// GetMetricsOverview returns optimize run counters and the store size.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	var snapshot observability.MetricsSnapshot
	if s.Metrics != nil {
		snapshot = s.Metrics.Snapshot()
	}
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		MetricsSnapshot: snapshot,
		Modified:        s.Service.Modified(),
		Days:            s.Service.Schedule().Len(),
		Events:          s.Service.Schedule().EventCount(),
	})
}

// GetStats returns schedule statistics as of today.
// GET /api/v1/stats
func (s *APIV1Service) GetStats(c echo.Context) error {
	feedback, err := s.Service.Feedback(c.Request().Context())
	if err != nil {
		slog.Warn("failed to load feedback for stats", "error", err)
		feedback = nil
	}
	return c.JSON(http.StatusOK, stats.Compute(s.Service.Days(nil), feedback, s.Now()))
}
