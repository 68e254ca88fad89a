package tracking

import (
	"errors"

	"backend-commutepro/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type pointRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	SpeedMps float64  `json:"speed_mps"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		session, err := svc.StartSession(c.Context(), userID)
		if err != nil {
			return trackingError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/points", authMiddleware, func(c *fiber.Ctx) error {
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
		res, err := svc.AddPoint(c.Context(), userID, c.Params("id"), TrackPoint{
			Lat:      *req.Lat,
			Lng:      *req.Lng,
			SpeedMps: req.SpeedMps,
		})
		if err != nil {
			return trackingError(err)
		}
		if !res.Accepted {
			return c.Status(fiber.StatusAccepted).JSON(res)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Post("/sessions/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user not authenticated")
		}
		summary, err := svc.StopSession(c.Context(), userID, c.Params("id"))
		if err != nil {
			return trackingError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/summary", authMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return trackingError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return trackingError(err)
		}
		return c.JSON(points)
	})
}

func trackingError(err error) error {
	switch {
	case errors.Is(err, ErrLocationDisabled):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionStopped):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
