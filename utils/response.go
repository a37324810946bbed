package utils

import (
	"math"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse writes a standardized error body. Internal errors are reported
// to Sentry (a no-op when Sentry was not initialized) and the underlying error
// is withheld from the caller.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	if status >= fiber.StatusInternalServerError && err != nil {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("path", c.Path())
			scope.SetTag("method", c.Method())
			sentry.CaptureException(err)
		})
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// ValidationErrorResponse writes a 400 with per-field messages.
func ValidationErrorResponse(c *fiber.Ctx, errs []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  errs,
	})
}

// ListResponse is the envelope for every list endpoint.
type ListResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages,omitempty"`
}

func NewListResponse(data interface{}, total int64, page, limit int) ListResponse {
	resp := ListResponse{Data: data, Total: total, Page: page, Limit: limit}
	if limit > 0 {
		resp.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return resp
}

// Pagination reads page/limit query params with the given default page size.
func Pagination(c *fiber.Ctx, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}
