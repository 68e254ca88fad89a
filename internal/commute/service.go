package commute

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/route"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthenticated     = errors.New("user not authenticated")
	ErrMissingRoute        = errors.New("select a start and end point first")
	ErrMissingDate         = errors.New("date_commuted required")
	ErrInvalidInput        = errors.New("invalid commute input")
	ErrNonPositiveDuration = errors.New("commute duration must be positive")
	ErrNotFound            = errors.New("commute not found")
)

// RouteSource exposes the user's current planned route.
type RouteSource interface {
	Settled(userID string) route.Snapshot
	Clear(userID string)
}

// LiveClock reports how long a live tracking session ran.
type LiveClock interface {
	ElapsedSeconds(userID, sessionID string) (float64, bool)
}

type Service struct {
	store  *Store
	routes RouteSource
	live   LiveClock
	log    *logrus.Logger
}

func NewService(store *Store, routes RouteSource, live LiveClock, log *logrus.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, routes: routes, live: live, log: log}
}

// Save validates the request against the user's current route, reconciles
// the duration and persists the trip. Nothing is written when validation
// fails. A successful save clears the route for the next trip.
func (s *Service) Save(ctx context.Context, userID string, req SaveRequest) (SaveResult, error) {
	if userID == "" {
		return SaveResult{}, ErrUnauthenticated
	}

	snap := s.routes.Settled(userID)
	if snap.Count < 2 {
		return SaveResult{}, ErrMissingRoute
	}
	req.DateCommuted = strings.TrimSpace(req.DateCommuted)
	if req.DateCommuted == "" {
		return SaveResult{}, ErrMissingDate
	}
	if _, err := time.Parse(time.DateOnly, req.DateCommuted); err != nil {
		return SaveResult{}, fmt.Errorf("%w: date_commuted must be YYYY-MM-DD", ErrInvalidInput)
	}
	if !trafficLevels[req.TrafficLevel] {
		return SaveResult{}, fmt.Errorf("%w: traffic_level must be Low, Medium or High", ErrInvalidInput)
	}

	var live *float64
	if req.TrackingSessionID != "" && s.live != nil {
		if elapsed, ok := s.live.ElapsedSeconds(userID, req.TrackingSessionID); ok {
			live = &elapsed
		}
	}

	res := Reconcile(req.StartTime, req.EndTime, live, snap.Metrics.DurationSeconds)
	if res.DurationMinutes <= 0 {
		return SaveResult{}, ErrNonPositiveDuration
	}

	start, end := snap.Points[0], snap.Points[1]
	estimated := res.EstimatedMinutes
	rec, err := s.store.Insert(ctx, TripRecord{
		UserID:                   userID,
		DateCommuted:             req.DateCommuted,
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		DurationMinutes:          res.DurationMinutes,
		EstimatedDurationMinutes: &estimated,
		DistanceKm:               roundKm(snap.Metrics.DistanceMeters),
		StartLocation:            start.Label,
		EndLocation:              end.Label,
		StartLat:                 start.Lat,
		StartLng:                 start.Lng,
		EndLat:                   end.Lat,
		EndLng:                   end.Lng,
		TrafficLevel:             req.TrafficLevel,
		Notes:                    req.Notes,
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("insert commute: %w", err)
	}

	s.routes.Clear(userID)
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"trip_id":  rec.ID,
		"duration": rec.DurationMinutes,
		"source":   res.Source,
	}).Info("commute saved")
	return SaveResult{Record: rec, Source: res.Source}, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]TripRecord, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListByOwner(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return s.store.DeleteByID(ctx, id, userID)
}

func roundKm(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}
