package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
	apierrors "github.com/ROM1024/2025-BEBOP/server/internal/errors"
	"github.com/ROM1024/2025-BEBOP/server/service/optimizer"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
	"github.com/ROM1024/2025-BEBOP/store"
	"github.com/ROM1024/2025-BEBOP/store/xlsx"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Stage   string              `json:"stage,omitempty"`
	RunID   string              `json:"run_id,omitempty"`
	Missing []string            `json:"missing,omitempty"`
}

// HTTPErrorHandler writes err as an ErrorResponse.
func (s *APIV1Service) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, resp := toErrorResponse(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"code", resp.Code,
			"error", err,
		)
	} else {
		slog.Debug("request rejected", "path", c.Path(), "code", resp.Code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func toErrorResponse(err error) (int, ErrorResponse) {
	var (
		apiErr     *apierrors.APIError
		httpErr    *echo.HTTPError
		missingErr *xlsx.MissingColumnsError
		roundErr   *xlsx.RoundTripError
		rejectErr  *optimizer.RejectedError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code.HTTPStatus(), ErrorResponse{Code: apiErr.Code, Message: apiErr.Message}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorResponse{Code: codeForStatus(httpErr.Code), Message: http.StatusText(httpErr.Code)}
	case errors.As(err, &missingErr):
		return respond(apierrors.ErrCodeMissingColumns, err.Error(), func(r *ErrorResponse) { r.Missing = missingErr.Columns })
	case errors.As(err, &roundErr):
		return respond(apierrors.ErrCodeRoundTripMismatch, err.Error(), nil)
	case errors.As(err, &rejectErr):
		code := apierrors.ErrCodeOptimizeRejected
		if rejectErr.Stage == optimizer.StageAwaitingResponse {
			code = apierrors.ErrCodeLLMUnavailable
		}
		return respond(code, err.Error(), func(r *ErrorResponse) {
			r.Stage = string(rejectErr.Stage)
			r.RunID = rejectErr.RunID
		})
	case errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidBrush),
		errors.Is(err, schedule.ErrEmptyTask),
		errors.Is(err, store.ErrInvalidDateRange):
		return respond(apierrors.ErrCodeInvalidArgument, err.Error(), nil)
	case errors.Is(err, schedule.ErrEventNotFound),
		errors.Is(err, schedule.ErrFeedbackDisabled):
		return respond(apierrors.ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, schedule.ErrNothingToOptimize):
		return respond(apierrors.ErrCodeNothingToOptimize, err.Error(), nil)
	case errors.Is(err, schedule.ErrUnsavedChanges):
		return respond(apierrors.ErrCodeUnsavedChanges, err.Error(), nil)
	case errors.Is(err, schedule.ErrOptimizerDisabled):
		return respond(apierrors.ErrCodeLLMUnavailable, err.Error(), nil)
	case errors.Is(err, fileutil.ErrLockNotAcquired):
		return respond(apierrors.ErrCodeFileBusy, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		return respond(apierrors.ErrCodeContextCanceled, "request canceled", nil)
	default:
		return respond(apierrors.ErrCodeInternal, "internal error", nil)
	}
}

func respond(code apierrors.ErrorCode, msg string, fill func(*ErrorResponse)) (int, ErrorResponse) {
	resp := ErrorResponse{Code: code, Message: msg}
	if fill != nil {
		fill(&resp)
	}
	return code.HTTPStatus(), resp
}

func codeForStatus(status int) apierrors.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return apierrors.ErrCodeUnauthorized
	case http.StatusTooManyRequests:
		return apierrors.ErrCodeRateLimitExceeded
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apierrors.ErrCodeNotFound
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return apierrors.ErrCodeInvalidArgument
	default:
		return apierrors.ErrCodeInternal
	}
}
