package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend-commutepro/internal/db"
	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/shared/geo"
	"backend-commutepro/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

var (
	ErrLocationDisabled = errors.New("enable location access in settings first")
	ErrSessionNotFound  = errors.New("tracking session not found")
	ErrSessionStopped   = errors.New("tracking session already stopped")
)

// LocationGate reports whether a user allows live tracking.
type LocationGate interface {
	LocationAccess(ctx context.Context, userID string) (bool, error)
}

// RouteSink receives the implied start and end points of a live session.
type RouteSink interface {
	Clear(userID string)
	Append(userID string, point geo.Point) int
}

const closeTimeout = 5 * time.Second

type live struct {
	id      string
	userID  string
	tracker *Tracker
	feed    *FeedSource
}

// Service runs live tracking sessions. Each user has at most one session
// in memory; starting a new one replaces the previous.
type Service struct {
	db     db.Querier
	hub    *stream.Hub
	gate   LocationGate
	routes RouteSink
	log    *logrus.Logger

	mu     sync.Mutex
	byUser map[string]*live
}

func NewService(db db.Querier, hub *stream.Hub, gate LocationGate, routes RouteSink, log *logrus.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		db:     db,
		hub:    hub,
		gate:   gate,
		routes: routes,
		log:    log,
		byUser: map[string]*live{},
	}
}

func TopicFor(sessionID string) string {
	return "tracking:" + sessionID
}

func (s *Service) StartSession(ctx context.Context, userID string) (Session, error) {
	if s.gate != nil {
		allowed, err := s.gate.LocationAccess(ctx, userID)
		if err != nil {
			return Session{}, fmt.Errorf("load settings: %w", err)
		}
		if !allowed {
			return Session{}, ErrLocationDisabled
		}
	}

	session := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: time.Now(),
		Status:    statusActive,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO track_sessions (id, user_id, started_at, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at, status
	`, session.ID, session.UserID, session.StartedAt, session.Status)
	if err := row.Scan(&session.StartedAt, &session.Status); err != nil {
		return Session{}, err
	}

	feed := NewFeedSource()
	tracker := NewTracker(feed, s.log)
	if s.routes != nil {
		tracker.OnStart(func(p geo.Point) { s.routes.Append(userID, p) })
		tracker.OnEnd(func(p geo.Point) { s.routes.Append(userID, p) })
	}

	s.mu.Lock()
	prev := s.byUser[userID]
	s.byUser[userID] = &live{id: session.ID, userID: userID, tracker: tracker, feed: feed}
	s.mu.Unlock()

	if prev != nil {
		prev.tracker.Stop()
		if err := s.finish(ctx, prev.id, prev.tracker); err != nil {
			s.log.WithError(err).WithField("session_id", prev.id).Warn("close replaced session failed")
		}
	}
	if s.routes != nil {
		s.routes.Clear(userID)
	}
	if err := tracker.Start(); err != nil {
		return Session{}, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": session.ID}).Info("live tracking started")
	return session, nil
}

// AddPoint feeds a sample into the live session. Samples the tracker drops
// are neither stored nor broadcast.
func (s *Service) AddPoint(ctx context.Context, userID, sessionID string, input TrackPoint) (PointResult, error) {
	l, err := s.lookup(userID, sessionID)
	if err != nil {
		return PointResult{}, err
	}
	if l.tracker.State() != StateTracking {
		return PointResult{}, ErrSessionStopped
	}
	if input.RecordedAt.IsZero() {
		input.RecordedAt = time.Now()
	}

	stepM, ok := l.feed.PushStep(Sample{Lat: input.Lat, Lng: input.Lng, SpeedMps: input.SpeedMps, RecordedAt: input.RecordedAt})
	if !ok {
		return PointResult{Accepted: false}, nil
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO track_points (session_id, lat, lng, recorded_at, speed_mps)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, sessionID, input.Lat, input.Lng, input.RecordedAt, input.SpeedMps)
	if err := row.Scan(&input.ID, &input.CreatedAt); err != nil {
		return PointResult{}, err
	}
	input.SessionID = sessionID

	if stepM > 0 {
		if _, err := s.db.Exec(ctx, `
			UPDATE track_sessions
			SET total_distance_m = COALESCE(total_distance_m,0) + $2
			WHERE id=$1
		`, sessionID, stepM); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("update session distance failed")
		}
	}

	if s.hub != nil {
		payload, _ := json.Marshal(input)
		s.hub.Broadcast(TopicFor(sessionID), payload)
	}
	return PointResult{Accepted: true, Point: &input}, nil
}

// StopSession stops the tracker, emits the end point and stores the path.
// Stopping twice returns the same summary.
func (s *Service) StopSession(ctx context.Context, userID, sessionID string) (Summary, error) {
	l, err := s.lookup(userID, sessionID)
	if err != nil {
		return Summary{}, err
	}

	if _, emitted := l.tracker.Stop(); emitted {
		s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": sessionID}).Info("live tracking stopped")
	}

	if err := s.finish(ctx, sessionID, l.tracker); err != nil {
		return Summary{}, err
	}
	return s.Summary(ctx, userID, sessionID)
}

// finish marks the session row stopped and stores the tracker's path. Rows
// already finished keep their first end time and path.
func (s *Service) finish(ctx context.Context, sessionID string, tracker *Tracker) error {
	var pathWKT *string
	if encoded, ok := encodePath(tracker.Path()); ok {
		pathWKT = &encoded
	}
	_, err := s.db.Exec(ctx, `
		UPDATE track_sessions
		SET ended_at = COALESCE(ended_at, now()), status=$2, path_wkt = COALESCE(path_wkt, $3)
		WHERE id=$1
	`, sessionID, statusStopped, pathWKT)
	return err
}

// ElapsedSeconds reports the live duration of the user's session.
func (s *Service) ElapsedSeconds(userID, sessionID string) (float64, bool) {
	l, err := s.lookup(userID, sessionID)
	if err != nil {
		return 0, false
	}
	if len(l.tracker.Path()) == 0 {
		return 0, false
	}
	return l.tracker.Elapsed().Seconds(), true
}

func (s *Service) Summary(ctx context.Context, userID, sessionID string) (Summary, error) {
	var (
		session Session
		pathWKT *string
	)
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, ended_at, COALESCE(total_distance_m,0), status, path_wkt
		FROM track_sessions WHERE id=$1 AND user_id=$2
	`, sessionID, userID)
	if err := row.Scan(&session.ID, &session.StartedAt, &session.EndedAt, &session.TotalDistanceM, &session.Status, &pathWKT); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, ErrSessionNotFound
		}
		return Summary{}, err
	}

	var pointCount int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM track_points WHERE session_id=$1`, sessionID).Scan(&pointCount); err != nil {
		return Summary{}, err
	}

	duration := time.Since(session.StartedAt)
	if session.EndedAt != nil {
		duration = session.EndedAt.Sub(session.StartedAt)
	}
	avgSpeed := 0.0
	if duration.Seconds() > 0 {
		avgSpeed = session.TotalDistanceM / duration.Seconds()
	}

	summary := Summary{
		SessionID:     session.ID,
		Status:        session.Status,
		PointCount:    pointCount,
		DistanceM:     session.TotalDistanceM,
		DurationSec:   int64(duration.Seconds()),
		AverageSpeedM: avgSpeed,
	}
	if pathWKT != nil && *pathWKT != "" {
		path, err := decodePath(*pathWKT)
		if err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("stored path unreadable")
		} else {
			summary.Path = path
		}
	}
	return summary, nil
}

func (s *Service) Points(ctx context.Context, userID, sessionID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT tp.id, tp.session_id, tp.lat, tp.lng, tp.recorded_at, COALESCE(tp.speed_mps,0), tp.created_at
		FROM track_points tp
		JOIN track_sessions ts ON ts.id = tp.session_id
		WHERE tp.session_id=$1 AND ts.user_id=$2
		ORDER BY tp.recorded_at
	`, sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []TrackPoint{}
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Lat, &p.Lng, &p.RecordedAt, &p.SpeedMps, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close stops every live session and closes its row.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.byUser
	s.byUser = map[string]*live{}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	for _, l := range sessions {
		l.tracker.Stop()
		if err := s.finish(ctx, l.id, l.tracker); err != nil {
			s.log.WithError(err).WithField("session_id", l.id).Warn("close session on shutdown failed")
		}
	}
}

func (s *Service) lookup(userID, sessionID string) (*live, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byUser[userID]
	if !ok || l.id != sessionID {
		return nil, ErrSessionNotFound
	}
	return l, nil
}

// encodePath renders the path as a WKT LineString. A path needs two samples.
func encodePath(path []Sample) (string, bool) {
	if len(path) < 2 {
		return "", false
	}
	coords := make([]geom.Coord, len(path))
	for i, s := range path {
		coords[i] = geom.Coord{s.Lng, s.Lat}
	}
	line, err := geom.NewLineString(geom.XY).SetCoords(coords)
	if err != nil {
		return "", false
	}
	encoded, err := wkt.Marshal(line)
	if err != nil {
		return "", false
	}
	return encoded, true
}

func decodePath(encoded string) (*geojson.Geometry, error) {
	g, err := wkt.Unmarshal(encoded)
	if err != nil {
		return nil, err
	}
	return geojson.Encode(g)
}
