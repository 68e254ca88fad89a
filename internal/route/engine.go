package route

import (
	"context"
	"errors"
	"sync"

	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoRoute  = errors.New("no route found")
	ErrDetached = errors.New("routing control detached")
	ErrDisposed = errors.New("routing engine disposed")
)

// Metrics is the routed distance and travel time for the current waypoints.
type Metrics struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Control is the routing backend bound to one engine for its whole life.
type Control interface {
	Route(ctx context.Context, from, to geo.Point) (Metrics, error)
	Detach() error
}

type ControlFactory func() (Control, error)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// Engine keeps RouteMetrics in step with the selected waypoints. Only the
// result for the most recently submitted pair is ever applied.
type Engine struct {
	mu        sync.Mutex
	factory   ControlFactory
	control   Control
	state     State
	waypoints []geo.Point
	metrics   Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	pending   sync.WaitGroup
	log       *logrus.Logger
}

func NewEngine(factory ControlFactory, log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		factory: factory,
		state:   StateUninitialized,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
}

// Update submits the current route points. Exactly two points start an
// asynchronous resolution; anything else clears the waypoints and zeroes
// the metrics.
func (e *Engine) Update(points []geo.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}

	if len(points) != maxPoints {
		e.waypoints = nil
		e.metrics = Metrics{}
		return nil
	}

	if e.control == nil {
		control, err := e.factory()
		if err != nil {
			e.log.WithError(err).Error("routing control construction failed")
			return err
		}
		e.control = control
		e.state = StateReady
	}

	if len(e.waypoints) == maxPoints && sameWaypoints(e.waypoints, points[0], points[1]) {
		return nil
	}

	from, to := points[0], points[1]
	e.waypoints = []geo.Point{from, to}

	control := e.control
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		m, err := control.Route(e.ctx, from, to)
		e.apply(from, to, m, err)
	}()
	return nil
}

func (e *Engine) apply(from, to geo.Point, m Metrics, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady || len(e.waypoints) != maxPoints || !sameWaypoints(e.waypoints, from, to) {
		e.log.WithFields(logrus.Fields{
			"from": from.Label,
			"to":   to.Label,
		}).Debug("discarding stale route result")
		return
	}
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"from": from.Label,
			"to":   to.Label,
		}).Warn("route resolution failed, keeping last metrics")
		return
	}
	e.metrics = m
}

// Wait blocks until every submitted resolution has finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Waypoints() []geo.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]geo.Point, len(e.waypoints))
	copy(out, e.waypoints)
	return out
}

// Dispose clears the waypoints before detaching the control, so an in-flight
// resolution can never land on a detached control. Calling it twice is safe.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.state == StateDisposed {
		e.mu.Unlock()
		return nil
	}
	e.waypoints = nil
	e.metrics = Metrics{}
	control := e.control
	e.state = StateDisposed
	e.cancel()
	e.mu.Unlock()

	if control == nil {
		return nil
	}
	return control.Detach()
}

func sameWaypoints(current []geo.Point, from, to geo.Point) bool {
	return current[0].SameLocation(from) && current[1].SameLocation(to)
}
