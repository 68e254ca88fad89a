package server

import (
	"net/http"
	"time"

	"backend-commutepro/internal/auth"
	"backend-commutepro/internal/commute"
	"backend-commutepro/internal/config"
	"backend-commutepro/internal/db"
	"backend-commutepro/internal/geocode"
	"backend-commutepro/internal/places"
	"backend-commutepro/internal/route"
	"backend-commutepro/internal/settings"
	"backend-commutepro/internal/stats"
	"backend-commutepro/internal/stream"
	"backend-commutepro/internal/tracking"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       db.Querier
	Redis    *redis.Client
	Stream   *stream.Hub
	Routes   *route.Registry
	Tracking *tracking.Service
	Log      *logrus.Logger
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *logrus.Logger) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: log.Out}))

	var q db.Querier
	if pool != nil {
		q = pool
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     q,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	httpClient := &http.Client{Timeout: time.Duration(s.Cfg.HTTPTimeoutSec) * time.Second}

	settingsSvc := settings.NewService(s.DB)
	placesSvc := places.NewService(s.DB)
	geocoder := geocode.NewClient(s.Cfg.NominatimURL, httpClient, s.Redis, s.Log)
	s.Routes = route.NewRegistry(route.OSRMFactory(s.Cfg.OSRMURL, httpClient), geocoder, placesSvc, s.Log)
	s.Tracking = tracking.NewService(s.DB, s.Stream, settingsSvc, s.Routes, s.Log)
	commuteSvc := commute.NewService(commute.NewStore(s.DB), s.Routes, s.Tracking, s.Log)
	statsSvc := stats.NewService(commuteSvc, settingsSvc, stream.NewNotifier(s.Stream),
		stats.Options{AssumedSpeedKmh: s.Cfg.AssumedSpeedKmh}, s.Log)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	route.RegisterRoutes(s.App.Group("/routes"), s.Routes, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	commute.RegisterRoutes(s.App.Group("/commutes"), commuteSvc, jwtMiddleware)
	stats.RegisterRoutes(s.App.Group("/insights"), statsSvc, jwtMiddleware)
	settings.RegisterRoutes(s.App.Group("/settings"), settingsSvc, jwtMiddleware)
	places.RegisterRoutes(s.App.Group("/places"), placesSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

// Close stops live sessions, disposes route engines and detaches the hub.
func (s *Server) Close() {
	s.Tracking.Close()
	s.Routes.Close()
	s.Stream.Close()
}
