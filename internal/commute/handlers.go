package commute

import (
	"errors"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req SaveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := svc.Save(c.Context(), auth.UserID(c), req)
		if err != nil {
			return saveError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		records, err := svc.List(c.Context(), auth.UserID(c))
		if err != nil {
			return saveError(err)
		}
		return c.JSON(records)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return saveError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func saveError(err error) error {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingRoute), errors.Is(err, ErrMissingDate),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNonPositiveDuration):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
