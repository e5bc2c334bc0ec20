// Package response renders the uniform API envelope. Every endpoint,
// including middleware rejections, answers with the same four fields so
// clients never branch on body shape.
package response

import "github.com/labstack/echo/v4"

// Envelope is the wire format of every response.
type Envelope struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func write(c echo.Context, status int, success bool, message string, data any) error {
	if data == nil {
		data = map[string]any{}
	}
	return c.JSON(status, Envelope{Code: status, Success: success, Message: message, Data: data})
}

// OK renders a 200 success.
func OK(c echo.Context, message string, data any) error {
	return write(c, 200, true, message, data)
}

// Created renders a 201 success.
func Created(c echo.Context, message string, data any) error {
	return write(c, 201, true, message, data)
}

// BadRequest renders a 400 validation failure carrying the first
// failing field's message only.
func BadRequest(c echo.Context, message string) error {
	return write(c, 400, false, message, nil)
}

// Unauthorized renders a 401 authentication failure.
func Unauthorized(c echo.Context, message string) error {
	return write(c, 401, false, message, nil)
}

// Forbidden renders a 403 authorization failure.
func Forbidden(c echo.Context, message string) error {
	return write(c, 403, false, message, nil)
}

// NotFound renders a 404.
func NotFound(c echo.Context, message string) error {
	return write(c, 404, false, message, nil)
}

// ServerError renders a 500 with a generic message; internals are
// logged, never exposed.
func ServerError(c echo.Context, message string) error {
	if message == "" {
		message = "internal server error"
	}
	return write(c, 500, false, message, nil)
}
