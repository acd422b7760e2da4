package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"charitychain/internal/errors"
	"charitychain/internal/service"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ListResponse is the success envelope of paginated listings.
type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	Data    interface{} `json:"data"`
}

// MessageResponse is the success envelope of operations without a body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, DataResponse{Success: true, Data: data})
}

func respondList(c echo.Context, count int, page service.Pagination, data interface{}) error {
	return c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Count:   count,
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages(),
		Data:    data,
	})
}

// fail converts a domain error into an echo error carrying the failure
// envelope. The cause stays attached for the error handler to log.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Message: "invalid request body",
			Code:    "INVALID_REQUEST",
		}).SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return fail(err)
	}
	return nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Message: "invalid " + name,
			Code:    "INVALID_ID",
		})
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func queryUint(c echo.Context, name string) uint {
	n, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO8601 parses a date or date-time. Values without a zone are UTC.
func ParseISO8601(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range iso8601Layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// parseDateField parses an ISO-8601 request field, reporting failures as a
// validation error on field.
func parseDateField(field, value string) (time.Time, error) {
	t, err := ParseISO8601(value)
	if err != nil {
		return time.Time{}, fail(errors.NewValidationError([]errors.FieldError{
			{Field: field, Message: "must be an ISO-8601 date"},
		}))
	}
	return t, nil
}
