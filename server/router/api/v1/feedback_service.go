package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/ROM1024/2025-BEBOP/server/internal/errors"
	"github.com/ROM1024/2025-BEBOP/store"
)

// GET /api/v1/feedback
func (s *APIV1Service) ListFeedback(c echo.Context) error {
	set, err := s.Service.Feedback(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, set)
}

// PutFeedback records the rating and comments of one day.
// PUT /api/v1/feedback/:date
func (s *APIV1Service) PutFeedback(c echo.Context) error {
	var fb store.Feedback
	if err := c.Bind(&fb); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	if fb.Rating < 0 || fb.Rating > 5 {
		return apierrors.InvalidArgument("rating must be between 0 and 5")
	}
	set, err := s.Service.PutFeedback(c.Request().Context(), c.Param("date"), fb)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, set)
}
