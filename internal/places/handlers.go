package places

import (
	"errors"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		places, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(places)
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		var req Place
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.UserID = userID
		place, err := svc.Upsert(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrInvalidPlace) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(place)
	})

	r.Delete("/:label", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		if err := svc.Delete(c.Context(), userID, c.Params("label")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
