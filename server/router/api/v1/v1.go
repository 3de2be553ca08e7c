package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/internal/observability"
	bebopmw "github.com/ROM1024/2025-BEBOP/server/middleware"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
)

// APIV1Service serves the schedule over JSON under /api/v1.
type APIV1Service struct {
	Profile  *profile.Profile
	Service  schedule.Service
	Metrics  *observability.Metrics
	Location *time.Location

	rateLimiter *bebopmw.RateLimiter
	now         func() time.Time
}

func NewAPIV1Service(profile *profile.Profile, svc schedule.Service, metrics *observability.Metrics, loc *time.Location) *APIV1Service {
	if loc == nil {
		loc = time.Local
	}
	return &APIV1Service{
		Profile:     profile,
		Service:     svc,
		Metrics:     metrics,
		Location:    loc,
		rateLimiter: bebopmw.NewRateLimiter(profile.RateLimitHour, profile.RateLimitDay),
		now:         time.Now,
	}
}

// Now returns the current time in the configured timezone.
func (s *APIV1Service) Now() time.Time {
	return s.now().In(s.Location)
}

// RegisterRoutes registers the API routes and the error handler with the
// given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = s.HTTPErrorHandler

	e.GET("/healthz", s.Healthz)

	creds := bebopmw.Credentials{
		Username:     s.Profile.APIUsername,
		Password:     s.Profile.APIPassword,
		PasswordHash: s.Profile.APIPasswordHash,
	}
	api := e.Group("/api/v1",
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOriginFunc: func(_ string) (bool, error) {
				return true, nil
			},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"*"},
			AllowCredentials: true,
		}),
		bebopmw.BasicAuth(creds),
		s.rateLimiter.Middleware(),
	)

	api.GET("/schedule", s.ListSchedule)
	api.GET("/schedule/:date", s.GetDay)
	api.PUT("/schedule/:date", s.SaveDay)
	api.DELETE("/schedule/:date", s.ClearDay)
	api.POST("/schedule/:date/events", s.AddEvent)
	api.DELETE("/schedule/:date/events/:index", s.DeleteEvent)
	api.POST("/schedule/:date/brush", s.ApplyBrush)
	api.GET("/schedule/:date/conflicts", s.GetConflicts)
	api.GET("/schedule/:date/free-slots", s.GetFreeSlots)

	api.POST("/optimize", s.Optimize)
	api.POST("/export/validate", s.ValidateExport)
	api.GET("/export/ics", s.ExportICS)

	api.GET("/feedback", s.ListFeedback)
	api.PUT("/feedback/:date", s.PutFeedback)

	api.GET("/stats", s.GetStats)
	api.GET("/metrics", s.GetMetricsOverview)
}

// Healthz reports liveness without authentication.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.Profile.Version,
		"modified": s.Service.Modified(),
	})
}
