package stats

import (
	"errors"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		in, err := svc.Insights(c.Context(), auth.UserID(c))
		if err != nil {
			return statsError(err)
		}
		return c.JSON(in)
	})

	r.Post("/tip", authMiddleware, func(c *fiber.Ctx) error {
		msg, sent, err := svc.Tip(c.Context(), auth.UserID(c))
		if err != nil {
			return statsError(err)
		}
		return c.JSON(fiber.Map{"message": msg, "notified": sent})
	})
}

func statsError(err error) error {
	if errors.Is(err, ErrUnauthenticated) {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
