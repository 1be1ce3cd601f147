package utils

import (
	"github.com/labstack/echo/v4"
)

// Payload holds the top-level fields merged into a response envelope.
type Payload map[string]any

// Respond writes {"success": true, "message"?, ...payload}.
func Respond(c echo.Context, status int, message string, payload Payload) error {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	return c.JSON(status, body)
}

// Fail writes {"success": false, "message": message}.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"message": message,
	})
}
