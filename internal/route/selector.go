package route

import (
	"sync"

	"backend-commutepro/internal/shared/geo"
)

const maxPoints = 2

// Observer is told about every point-count transition. Count 0 means the
// selector was reset. Observers run under the selector lock and must not
// call back into it.
type Observer func(count int, points []geo.Point)

// Selector holds the start and end of a single route leg.
type Selector struct {
	mu        sync.Mutex
	points    []geo.Point
	observers []Observer
}

func NewSelector() *Selector {
	return &Selector{points: make([]geo.Point, 0, maxPoints)}
}

func (s *Selector) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// AddPoint appends p and returns the new count. Once two points are held
// it does nothing and returns 2.
func (s *Selector) AddPoint(p geo.Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.points) >= maxPoints {
		return len(s.points)
	}
	s.points = append(s.points, p)
	s.notify()
	return len(s.points)
}

func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = s.points[:0]
	s.notify()
}

func (s *Selector) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

func (s *Selector) Points() []geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Selector) Start() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) < 1 {
		return geo.Point{}, false
	}
	return s.points[0], true
}

func (s *Selector) End() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) < maxPoints {
		return geo.Point{}, false
	}
	return s.points[1], true
}

func (s *Selector) notify() {
	points := s.snapshot()
	for _, o := range s.observers {
		o(len(points), points)
	}
}

func (s *Selector) snapshot() []geo.Point {
	out := make([]geo.Point, len(s.points))
	copy(out, s.points)
	return out
}
