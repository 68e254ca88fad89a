package route

import (
	"context"
	"errors"
	"sync"

	"backend-commutepro/internal/geocode"
	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

var ErrNoPlaces = errors.New("saved places unavailable")

// savedPlaceRadiusM is how close a clicked point must be to a saved place
// to take its label.
const savedPlaceRadiusM = 100

// PlaceLookup finds a user's saved places.
type PlaceLookup interface {
	Nearest(ctx context.Context, userID string, lat, lng, radiusM float64) (geo.Point, bool, error)
	ByLabel(ctx context.Context, userID, label string) (geo.Point, error)
}

// Snapshot is the read-only view of a planner.
type Snapshot struct {
	Points  []geo.Point `json:"points"`
	Count   int         `json:"count"`
	Metrics Metrics     `json:"metrics"`
	State   string      `json:"engine_state"`
}

// Planner is one user's route capture: a selector feeding a routing engine.
type Planner struct {
	userID   string
	selector *Selector
	engine   *Engine
	labels   geocode.Resolver
	places   PlaceLookup
	log      *logrus.Logger
}

func NewPlanner(userID string, engine *Engine, labels geocode.Resolver, places PlaceLookup, log *logrus.Logger) *Planner {
	if log == nil {
		log = logger.Discard()
	}
	p := &Planner{
		userID:   userID,
		selector: NewSelector(),
		engine:   engine,
		labels:   labels,
		places:   places,
		log:      log,
	}
	p.selector.Subscribe(func(_ int, points []geo.Point) {
		if err := engine.Update(points); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("route engine update failed")
		}
	})
	return p
}

// AddCoordinate labels a clicked map position and adds it. A full selector
// short-circuits before any lookup.
func (p *Planner) AddCoordinate(ctx context.Context, lat, lng float64) int {
	if count := p.selector.Count(); count >= maxPoints {
		return count
	}
	return p.selector.AddPoint(geo.Point{Lat: lat, Lng: lng, Label: p.label(ctx, lat, lng)})
}

// AddPoint adds an already labelled point, as produced by live tracking.
func (p *Planner) AddPoint(_ context.Context, point geo.Point) int {
	return p.selector.AddPoint(point)
}

// AddSavedPlace adds the user's saved place with the given label.
func (p *Planner) AddSavedPlace(ctx context.Context, label string) (int, error) {
	if count := p.selector.Count(); count >= maxPoints {
		return count, nil
	}
	if p.places == nil {
		return p.selector.Count(), ErrNoPlaces
	}
	point, err := p.places.ByLabel(ctx, p.userID, label)
	if err != nil {
		return p.selector.Count(), err
	}
	return p.selector.AddPoint(point), nil
}

func (p *Planner) Reset() {
	p.selector.Reset()
}

func (p *Planner) Wait() {
	p.engine.Wait()
}

func (p *Planner) Snapshot() Snapshot {
	points := p.selector.Points()
	return Snapshot{
		Points:  points,
		Count:   len(points),
		Metrics: p.engine.Metrics(),
		State:   p.engine.State().String(),
	}
}

func (p *Planner) Close() error {
	return p.engine.Dispose()
}

func (p *Planner) label(ctx context.Context, lat, lng float64) string {
	if p.places != nil {
		place, ok, err := p.places.Nearest(ctx, p.userID, lat, lng, savedPlaceRadiusM)
		if err != nil {
			p.log.WithError(err).Warn("saved place lookup failed")
		}
		if ok && place.Label != "" {
			return place.Label
		}
	}
	if p.labels == nil {
		return geo.CoordinateLabel(lat, lng)
	}
	return p.labels.ResolveLabel(ctx, lat, lng)
}

// Registry owns the live planner of every user.
type Registry struct {
	mu       sync.Mutex
	planners map[string]*Planner
	factory  ControlFactory
	labels   geocode.Resolver
	places   PlaceLookup
	log      *logrus.Logger
}

func NewRegistry(factory ControlFactory, labels geocode.Resolver, places PlaceLookup, log *logrus.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		planners: map[string]*Planner{},
		factory:  factory,
		labels:   labels,
		places:   places,
		log:      log,
	}
}

// Get returns the user's planner, creating it on first use.
func (r *Registry) Get(userID string) *Planner {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.planners[userID]; ok {
		return p
	}
	p := NewPlanner(userID, NewEngine(r.factory, r.log), r.labels, r.places, r.log)
	r.planners[userID] = p
	return p
}

// Settled waits for in-flight routing and returns the user's route.
func (r *Registry) Settled(userID string) Snapshot {
	p := r.Get(userID)
	p.Wait()
	return p.Snapshot()
}

// Clear empties the user's route without disposing the engine.
func (r *Registry) Clear(userID string) {
	r.Get(userID).Reset()
}

// Append adds an already labelled point to the user's route.
func (r *Registry) Append(userID string, point geo.Point) int {
	return r.Get(userID).AddPoint(context.Background(), point)
}

// Drop disposes the user's planner. The next Get starts fresh.
func (r *Registry) Drop(userID string) error {
	r.mu.Lock()
	p, ok := r.planners[userID]
	delete(r.planners, userID)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return p.Close()
}

// Close disposes every planner.
func (r *Registry) Close() {
	r.mu.Lock()
	planners := r.planners
	r.planners = map[string]*Planner{}
	r.mu.Unlock()

	for userID, p := range planners {
		if err := p.Close(); err != nil {
			r.log.WithError(err).WithField("user_id", userID).Warn("planner dispose failed")
		}
	}
}
