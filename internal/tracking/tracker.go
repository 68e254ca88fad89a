package tracking

import (
	"errors"
	"sync"
	"time"

	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

const (
	StartLabel = "Current Location"
	EndLabel   = "Destination"

	defaultMinDisplacementM = 10
)

var ErrAlreadyTracking = errors.New("tracking already active")

type State int

const (
	StateIdle State = iota
	StateTracking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Sample is one position fix.
type Sample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedMps   float64   `json:"speed_mps"`
	RecordedAt time.Time `json:"recorded_at"`
}

type WatchOptions struct {
	HighAccuracy     bool
	MinDisplacementM float64
}

// DeliverFunc hands a sample to the tracker. It reports whether the sample
// was kept and, if so, its distance from the previously kept sample.
type DeliverFunc func(Sample) (stepM float64, accepted bool)

// PositionSource delivers samples until the returned stop func is called.
type PositionSource interface {
	Watch(opts WatchOptions, deliver DeliverFunc, fail func(error)) (stop func(), err error)
}

// Tracker turns a position stream into a path with implied start and end
// points. Callbacks run under the tracker's lock and must not call back
// into it.
type Tracker struct {
	mu        sync.Mutex
	source    PositionSource
	opts      WatchOptions
	state     State
	gen       int
	path      []Sample
	stop      func()
	degraded  bool
	stoppedAt time.Time
	onStart   func(geo.Point)
	onEnd     func(geo.Point)
	log       *logrus.Logger
	now       func() time.Time
}

func NewTracker(source PositionSource, log *logrus.Logger) *Tracker {
	if log == nil {
		log = logger.Discard()
	}
	return &Tracker{
		source: source,
		opts:   WatchOptions{HighAccuracy: true, MinDisplacementM: defaultMinDisplacementM},
		log:    log,
		now:    time.Now,
	}
}

// OnStart registers the receiver of the synthesized start point.
func (t *Tracker) OnStart(fn func(geo.Point)) {
	t.mu.Lock()
	t.onStart = fn
	t.mu.Unlock()
}

// OnEnd registers the receiver of the synthesized end point.
func (t *Tracker) OnEnd(fn func(geo.Point)) {
	t.mu.Lock()
	t.onEnd = fn
	t.mu.Unlock()
}

// Start clears the path and begins watching the source. A stopped tracker
// can be started again.
func (t *Tracker) Start() error {
	t.mu.Lock()
	if t.state == StateTracking {
		t.mu.Unlock()
		return ErrAlreadyTracking
	}
	prev := t.state
	t.state = StateTracking
	t.gen++
	gen := t.gen
	t.path = nil
	t.degraded = false
	t.stoppedAt = time.Time{}
	opts := t.opts
	t.mu.Unlock()

	stop, err := t.source.Watch(opts,
		func(s Sample) (float64, bool) { return t.deliver(gen, s) },
		func(err error) { t.fail(gen, err) },
	)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		if t.gen == gen {
			t.state = prev
		}
		return err
	}
	if t.gen != gen || t.state != StateTracking {
		// stopped while the watch was being set up
		stop()
		return nil
	}
	t.stop = stop
	return nil
}

// Stop ends the session. It returns the end point when the path has at
// least one sample. Calling Stop again is a no-op.
func (t *Tracker) Stop() (geo.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateTracking {
		return geo.Point{}, false
	}
	t.state = StateStopped
	t.stoppedAt = t.now()
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	if len(t.path) == 0 {
		return geo.Point{}, false
	}
	last := t.path[len(t.path)-1]
	end := geo.Point{Lat: last.Lat, Lng: last.Lng, Label: EndLabel}
	if t.onEnd != nil {
		t.onEnd(end)
	}
	return end, true
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Degraded reports whether the source failed during the current session.
func (t *Tracker) Degraded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.degraded
}

// Path returns a copy of the accepted samples.
func (t *Tracker) Path() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sample, len(t.path))
	copy(out, t.path)
	return out
}

// Elapsed runs from the first sample to Stop, or to now while tracking.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.path) == 0 {
		return 0
	}
	end := t.stoppedAt
	if t.state == StateTracking {
		end = t.now()
	}
	if d := end.Sub(t.path[0].RecordedAt); d > 0 {
		return d
	}
	return 0
}

func (t *Tracker) deliver(gen int, s Sample) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateTracking || t.gen != gen || t.degraded {
		return 0, false
	}
	if s.RecordedAt.IsZero() {
		s.RecordedAt = t.now()
	}
	var stepM float64
	if n := len(t.path); n > 0 {
		last := t.path[n-1]
		stepM = geo.HaversineM(last.Lat, last.Lng, s.Lat, s.Lng)
		if stepM < t.opts.MinDisplacementM {
			return 0, false
		}
	}
	t.path = append(t.path, s)
	if len(t.path) == 1 && t.onStart != nil {
		t.onStart(geo.Point{Lat: s.Lat, Lng: s.Lng, Label: StartLabel})
	}
	return stepM, true
}

func (t *Tracker) fail(gen int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateTracking || t.gen != gen {
		return
	}
	t.degraded = true
	t.log.WithError(err).Warn("position source failed, tracking continues without samples")
}

// FeedSource is a PositionSource driven by explicit Push calls, such as
// samples posted by a client.
type FeedSource struct {
	mu      sync.Mutex
	deliver DeliverFunc
	fail    func(error)
}

func NewFeedSource() *FeedSource {
	return &FeedSource{}
}

func (f *FeedSource) Watch(_ WatchOptions, deliver DeliverFunc, fail func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver = deliver
	f.fail = fail
	return f.unwatch, nil
}

// Push hands a sample to the watcher. It reports false when nobody is
// watching or the sample was filtered out.
func (f *FeedSource) Push(s Sample) bool {
	_, ok := f.PushStep(s)
	return ok
}

// PushStep is Push that also returns the distance in meters from the
// previously kept sample, measured under the tracker's lock.
func (f *FeedSource) PushStep(s Sample) (float64, bool) {
	f.mu.Lock()
	deliver := f.deliver
	f.mu.Unlock()
	if deliver == nil {
		return 0, false
	}
	return deliver(s)
}

// Fail reports a source error to the watcher.
func (f *FeedSource) Fail(err error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		fail(err)
	}
}

func (f *FeedSource) unwatch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver = nil
	f.fail = nil
}
