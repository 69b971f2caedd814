package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/dto"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as dto.ErrorResponse with the status its
// kind maps to.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toErrorResponse(err)

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		} else {
			logger.DebugContext(c.Request().Context(), "request rejected",
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func toErrorResponse(err error) (int, dto.ErrorResponse) {
	if appErr, ok := apperr.As(err); ok {
		status := apperr.HTTPStatus(appErr.Kind)
		msg := appErr.Message
		if appErr.Kind == apperr.KindInternal {
			msg = "Internal server error"
		}
		return status, dto.ErrorResponse{
			Kind:    string(appErr.Kind),
			Message: msg,
			Status:  appErr.ProviderStatus,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := apperr.KindInternal
		switch {
		case he.Code == http.StatusNotFound:
			kind = apperr.KindNotFound
		case he.Code < http.StatusInternalServerError:
			kind = apperr.KindValidation
		}
		msg := fmt.Sprint(he.Message)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, dto.ErrorResponse{Kind: string(kind), Message: msg}
	}

	return http.StatusInternalServerError, dto.ErrorResponse{
		Kind:    string(apperr.KindInternal),
		Message: "Internal server error",
	}
}
