package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/ROM1024/2025-BEBOP/server/internal/errors"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/store"
)

// DayResponse is one day of the schedule.
type DayResponse struct {
	Date   string        `json:"date"`
	Events []store.Event `json:"events"`
}

// SaveDayRequest replaces a day with the editor rows.
type SaveDayRequest struct {
	Events []store.Event `json:"events"`
}

// BrushRequest copies the event at Index with the given targets.
type BrushRequest struct {
	Index int `json:"index"`
	schedule.BrushSpec
}

// BrushResponse reports how many copies a brush made.
type BrushResponse struct {
	Copies int `json:"copies"`
}

// ListSchedule returns the days inside an optional start/end range.
// GET /api/v1/schedule?start=2024-06-10&end=2024-06-16
func (s *APIV1Service) ListSchedule(c echo.Context) error {
	r, err := rangeFromQuery(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Service.Days(r))
}

// GET /api/v1/schedule/:date
func (s *APIV1Service) GetDay(c echo.Context) error {
	date := c.Param("date")
	events, err := s.Service.Day(date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dayResponse(date, events))
}

// SaveDay replaces one day with the submitted rows and saves.
// PUT /api/v1/schedule/:date
func (s *APIV1Service) SaveDay(c echo.Context) error {
	var req SaveDayRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	date := c.Param("date")
	events, err := s.Service.SaveDay(date, req.Events)
	if err != nil {
		return err
	}
	if err := s.Service.Save(c.Request().Context()); err != nil {
		return err
	}
	slog.Info("day saved", "date", date, "events", len(events))
	return c.JSON(http.StatusOK, dayResponse(date, events))
}

// DELETE /api/v1/schedule/:date
func (s *APIV1Service) ClearDay(c echo.Context) error {
	date := c.Param("date")
	if err := s.Service.ClearDay(date); err != nil {
		return err
	}
	if err := s.Service.Save(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /api/v1/schedule/:date/events
func (s *APIV1Service) AddEvent(c echo.Context) error {
	var ev store.Event
	if err := c.Bind(&ev); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	date := c.Param("date")
	events, err := s.Service.AddEvent(date, ev)
	if err != nil {
		return err
	}
	if err := s.Service.Save(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dayResponse(date, events))
}

// DELETE /api/v1/schedule/:date/events/:index
func (s *APIV1Service) DeleteEvent(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return apierrors.InvalidArgument("index must be an integer")
	}
	date := c.Param("date")
	events, err := s.Service.DeleteEvent(date, index)
	if err != nil {
		return err
	}
	if err := s.Service.Save(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dayResponse(date, events))
}

// ApplyBrush runs the format brush from one event.
// POST /api/v1/schedule/:date/brush
func (s *APIV1Service) ApplyBrush(c echo.Context) error {
	var req BrushRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	copies, err := s.Service.ApplyBrush(c.Param("date"), req.Index, req.BrushSpec)
	if err != nil {
		return err
	}
	if err := s.Service.Save(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BrushResponse{Copies: copies})
}

// GET /api/v1/schedule/:date/conflicts
func (s *APIV1Service) GetConflicts(c echo.Context) error {
	conflicts, err := s.Service.Conflicts(c.Param("date"))
	if err != nil {
		return err
	}
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	return c.JSON(http.StatusOK, conflicts)
}

// GetFreeSlots lists gaps of at least ?min minutes, one hour by default.
// GET /api/v1/schedule/:date/free-slots?min=30
func (s *APIV1Service) GetFreeSlots(c echo.Context) error {
	minMinutes := 0
	if raw := c.QueryParam("min"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return apierrors.InvalidArgument("min must be a non-negative integer")
		}
		minMinutes = n
	}
	slots, err := s.Service.FreeSlots(c.Param("date"), minMinutes)
	if err != nil {
		return err
	}
	if slots == nil {
		slots = []schedule.TimeSlot{}
	}
	return c.JSON(http.StatusOK, slots)
}

func dayResponse(date string, events []store.Event) DayResponse {
	if events == nil {
		events = []store.Event{}
	}
	return DayResponse{Date: date, Events: events}
}

// rangeFromQuery reads ?start and ?end. Both absent means every day; one
// alone means that single day.
func rangeFromQuery(c echo.Context) (*store.DateRange, error) {
	start, end := c.QueryParam("start"), c.QueryParam("end")
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	r, err := store.NewDateRange(start, end)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid date range")
	}
	return &r, nil
}
