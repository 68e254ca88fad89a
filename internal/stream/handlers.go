package stream

import (
	"strings"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/ws/:topic", authMiddleware, func(c *fiber.Ctx) error {
		topic := c.Params("topic")
		if owner, ok := strings.CutPrefix(topic, "user:"); ok && owner != auth.UserID(c) {
			return fiber.NewError(fiber.StatusForbidden, "topic belongs to another user")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("topic"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
