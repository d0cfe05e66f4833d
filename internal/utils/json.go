package utils

import (
	"github.com/gofiber/fiber/v2/log"
)

// JSONWriter is satisfied by *websocket.Conn.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// SendJSON sends a JSON payload to a WebSocket connection.
// Fiber's websocket connections are not safe for concurrent writes; the
// caller serializes writes per connection.
func SendJSON(c JSONWriter, payload interface{}) error {
	return c.WriteJSON(payload)
}

// LogError logs an error if it's not nil
func LogError(err error, context string) {
	if err != nil {
		log.Errorw("operation failed", "context", context, "error", err)
	}
}
