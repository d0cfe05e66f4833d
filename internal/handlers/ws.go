package handlers

import (
	"event-gallery/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketHandler keeps a connection registered with the hub until the
// client goes away. Clients only listen; anything they send is discarded.
func WebSocketHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		// Generate a unique ID for this connection
		connID := uuid.New().String()
		hub.Register(connID, c)

		defer func() {
			hub.Unregister(connID)
			c.Close()
		}()

		hub.Send(connID, models.GalleryEvent{Event: "connected"})

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warnw("websocket closed unexpectedly", "conn_id", connID, "error", err)
				}
				return
			}
		}
	})
}

// WSUpgradeMiddleware rejects plain HTTP requests to the websocket route
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
