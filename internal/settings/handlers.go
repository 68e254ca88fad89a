package settings

import (
	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		st, err := svc.Get(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(st)
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		var patch Patch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := svc.Upsert(c.Context(), userID, patch)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(st)
	})
}
