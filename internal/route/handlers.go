package route

import (
	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func RegisterRoutes(r fiber.Router, reg *Registry, authMiddleware fiber.Handler) {
	r.Post("/points", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		var req pointRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat == nil || req.Lng == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
		}
		planner := reg.Get(userID)
		count := planner.AddCoordinate(c.Context(), *req.Lat, *req.Lng)
		return c.JSON(fiber.Map{"count": count, "route": planner.Snapshot()})
	})

	r.Post("/places/:label", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		planner := reg.Get(userID)
		count, err := planner.AddSavedPlace(c.Context(), c.Params("label"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "saved place not found")
		}
		return c.JSON(fiber.Map{"count": count, "route": planner.Snapshot()})
	})

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		planner := reg.Get(userID)
		planner.Reset()
		return c.JSON(planner.Snapshot())
	})

	r.Get("/current", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		planner := reg.Get(userID)
		if c.QueryBool("wait") {
			planner.Wait()
		}
		return c.JSON(planner.Snapshot())
	})

	r.Delete("/current", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		if err := reg.Drop(userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
