// Package playback steps through a decision point sequence, either manually or
// on an auto-advance timer, and records how long each point stayed on screen.
//
// A [Sequencer] is safe for concurrent use. Timer callbacks from a [RealClock]
// arrive on their own goroutine, so every transition runs under one mutex and
// callbacks from a cancelled timer are discarded. Observers are always called
// without the lock held.
package playback

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rehearse/internal/selection"
)

// ErrInvalidSpeed is returned by SetSpeed for a multiplier outside the
// supported set.
var ErrInvalidSpeed = errors.New("speed must be one of 0, 0.5, 1 or 2")

// ErrIndexOutOfRange is returned by GoTo for an index outside the sequence.
var ErrIndexOutOfRange = errors.New("decision point index out of range")

// SpeedSkip advances immediately instead of waiting.
const SpeedSkip = 0.0

// Speeds lists the accepted playback multipliers.
var Speeds = []float64{SpeedSkip, 0.5, 1, 2}

// State is the playback state.
type State int

const (
	StateIdle State = iota
	StateShowing
	StatePlaying
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShowing:
		return "showing"
	case StatePlaying:
		return "playing"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Config holds the auto-advance timing.
type Config struct {
	// BaseDwell is how long a point is shown at speed 1.
	BaseDwell time.Duration `mapstructure:"base_dwell"`
	// DecisionMultiplier stretches the delay for high-stakes decision points.
	DecisionMultiplier float64 `mapstructure:"decision_multiplier"`
	// Speed is the initial multiplier.
	Speed float64 `mapstructure:"speed"`
}

// DefaultConfig returns 5 s base dwell, a 1.6 decision multiplier and normal speed.
func DefaultConfig() Config {
	return Config{
		BaseDwell:          5 * time.Second,
		DecisionMultiplier: 1.6,
		Speed:              1,
	}
}

// ValidSpeed reports whether m is an accepted speed multiplier.
func ValidSpeed(m float64) bool {
	for _, s := range Speeds {
		if m == s {
			return true
		}
	}
	return false
}

// Snapshot is the observable playback state after a transition.
type Snapshot struct {
	State    State                    `json:"state"`
	Index    int                      `json:"index"`
	Total    int                      `json:"total"`
	Current  *selection.DecisionPoint `json:"current,omitempty"`
	Playing  bool                     `json:"playing"`
	Speed    float64                  `json:"speed"`
	Progress float64                  `json:"progress"`
	IsFirst  bool                     `json:"isFirst"`
	IsLast   bool                     `json:"isLast"`
}

type observer struct {
	id    int
	fn    func(Snapshot)
	close func()
}

// Sequencer drives playback over one decision point sequence at a time.
type Sequencer struct {
	mu    sync.Mutex
	clock Clock
	cfg   Config
	log   zerolog.Logger

	points []selection.DecisionPoint
	index  int
	state  State
	speed  float64

	timer Timer
	gen   uint64

	// shownAt is zero when the current point is not being timed.
	shownAt time.Time
	dwell   []time.Duration
	visits  []int

	observers []observer
	nextID    int
}

// New creates an idle Sequencer. An invalid cfg.Speed falls back to 1.
func New(cfg Config, clock Clock, log zerolog.Logger) *Sequencer {
	if clock == nil {
		clock = RealClock{}
	}
	speed := cfg.Speed
	if !ValidSpeed(speed) {
		speed = 1
	}
	return &Sequencer{
		clock: clock,
		cfg:   cfg,
		log:   log,
		speed: speed,
	}
}

// Init loads points, discarding any previous sequence and its telemetry, and
// shows the first point. An empty list leaves the sequencer idle.
func (s *Sequencer) Init(points []selection.DecisionPoint) {
	s.mu.Lock()
	s.stopTimerLocked()
	s.points = append([]selection.DecisionPoint(nil), points...)
	s.index = 0
	s.dwell = make([]time.Duration, len(points))
	s.visits = make([]int, len(points))
	s.shownAt = time.Time{}

	if len(points) == 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	s.state = StateShowing
	s.showLocked(0)
	s.transitionLocked("init")
	s.unlockAndNotify()
}

// Play starts auto-advance from the current point. It does nothing when idle,
// completed or already playing.
func (s *Sequencer) Play() {
	s.mu.Lock()
	if s.state != StateShowing {
		s.mu.Unlock()
		return
	}
	s.state = StatePlaying
	s.armLocked()
	s.transitionLocked("play")
	s.unlockAndNotify()
}

// Pause stops auto-advance and finalizes the current dwell measurement. The
// current point keeps being timed from the moment of the pause.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateCompleted {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.flushLocked()
	s.shownAt = s.clock.Now()
	s.state = StateShowing
	s.transitionLocked("pause")
	s.unlockAndNotify()
}

// Next moves to the following point. At the last point it completes the
// sequence instead, leaving the index unchanged.
func (s *Sequencer) Next() {
	s.mu.Lock()
	if !s.advanceLocked("next") {
		s.mu.Unlock()
		return
	}
	s.unlockAndNotify()
}

// Prev moves to the preceding point. It does nothing at index 0.
func (s *Sequencer) Prev() {
	s.mu.Lock()
	if s.state == StateIdle || s.index == 0 {
		s.mu.Unlock()
		return
	}
	s.moveLocked(s.index - 1)
	s.transitionLocked("prev")
	s.unlockAndNotify()
}

// GoTo jumps to index i. While playing, the timer restarts for the new point.
func (s *Sequencer) GoTo(i int) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	if i < 0 || i >= len(s.points) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	s.moveLocked(i)
	s.transitionLocked("goto")
	s.unlockAndNotify()
	return nil
}

// SetSpeed changes the speed multiplier. While playing, the skip speed
// advances immediately and any other speed restarts the timer.
func (s *Sequencer) SetSpeed(m float64) error {
	if !ValidSpeed(m) {
		return ErrInvalidSpeed
	}

	s.mu.Lock()
	s.speed = m
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	if s.state == StatePlaying {
		if m == SpeedSkip {
			s.stopTimerLocked()
			s.advanceLocked("skip")
		} else {
			s.armLocked()
			s.transitionLocked("speed")
		}
	} else {
		s.transitionLocked("speed")
	}
	s.unlockAndNotify()
	return nil
}

// Destroy cancels any pending timer, finalizes dwell and detaches every
// observer. Dwell telemetry stays readable until the next Init.
func (s *Sequencer) Destroy() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.flushLocked()
	s.state = StateIdle
	obs := s.observers
	s.observers = nil
	s.log.Debug().Msg("playback destroyed")
	s.mu.Unlock()

	for _, o := range obs {
		if o.close != nil {
			o.close()
		}
	}
}

// Snapshot returns the current observable state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Delay returns the auto-advance delay for the current point at the current
// speed.
func (s *Sequencer) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayLocked()
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned function unsubscribes.
func (s *Sequencer) Subscribe(fn func(Snapshot)) func() {
	return s.subscribe(fn, nil)
}

// Updates returns a channel of snapshots with the given buffer size, and a
// function that unsubscribes and closes it. Destroy also closes it. A
// snapshot is dropped when the buffer is full.
func (s *Sequencer) Updates(buf int) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, buf)
	var (
		mu     sync.Mutex
		closed bool
	)
	send := func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- snap:
		default:
		}
	}
	closeCh := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	unsubscribe := s.subscribe(send, closeCh)
	return ch, func() {
		unsubscribe()
		closeCh()
	}
}

func (s *Sequencer) subscribe(fn func(Snapshot), closeFn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn, close: closeFn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// advanceLocked implements Next. It reports whether a transition happened.
func (s *Sequencer) advanceLocked(reason string) bool {
	if s.state == StateIdle || s.state == StateCompleted {
		return false
	}
	if s.index == len(s.points)-1 {
		s.stopTimerLocked()
		s.flushLocked()
		s.state = StateCompleted
		s.transitionLocked(reason)
		return true
	}
	s.moveLocked(s.index + 1)
	s.transitionLocked(reason)
	return true
}

// moveLocked records dwell for the current point and shows point i. A
// completed sequence returns to showing; a playing one re-arms.
func (s *Sequencer) moveLocked(i int) {
	s.flushLocked()
	s.showLocked(i)
	switch s.state {
	case StateCompleted:
		s.state = StateShowing
	case StatePlaying:
		s.armLocked()
	}
}

func (s *Sequencer) showLocked(i int) {
	s.index = i
	s.visits[i]++
	s.shownAt = s.clock.Now()
}

// flushLocked adds the time since the current point was shown to its dwell
// and stops timing it.
func (s *Sequencer) flushLocked() {
	if s.shownAt.IsZero() || s.index >= len(s.dwell) {
		return
	}
	if d := s.clock.Now().Sub(s.shownAt); d > 0 {
		s.dwell[s.index] += d
	}
	s.shownAt = time.Time{}
}

func (s *Sequencer) delayLocked() time.Duration {
	if s.speed == SpeedSkip || s.index >= len(s.points) {
		return 0
	}
	d := float64(s.cfg.BaseDwell) / s.speed
	if s.points[s.index].IsDecisionPoint {
		d *= s.cfg.DecisionMultiplier
	}
	return time.Duration(math.Round(d))
}

func (s *Sequencer) armLocked() {
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delayLocked(), func() { s.fire(gen) })
}

func (s *Sequencer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// fire handles an auto-advance callback. Callbacks from a timer that has since
// been replaced or cancelled are ignored.
func (s *Sequencer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StatePlaying {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if !s.advanceLocked("auto") {
		s.mu.Unlock()
		return
	}
	s.unlockAndNotify()
}

func (s *Sequencer) transitionLocked(reason string) {
	s.log.Debug().
		Str("reason", reason).
		Str("state", s.state.String()).
		Int("index", s.index).
		Float64("speed", s.speed).
		Msg("playback transition")
}

func (s *Sequencer) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   s.state,
		Index:   s.index,
		Total:   len(s.points),
		Playing: s.state == StatePlaying,
		Speed:   s.speed,
	}
	if s.state == StateIdle || len(s.points) == 0 {
		return snap
	}
	p := s.points[s.index]
	snap.Current = &p
	snap.Progress = float64(s.index+1) / float64(len(s.points)) * 100
	snap.IsFirst = s.index == 0
	snap.IsLast = s.index == len(s.points)-1
	return snap
}

// unlockAndNotify releases the lock and delivers the post-transition snapshot.
func (s *Sequencer) unlockAndNotify() {
	snap := s.snapshotLocked()
	obs := append([]observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range obs {
		o.fn(snap)
	}
}
