package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"tour-playback-service/internal/domain"
)

var (
	ErrInvalidConfig = errors.New("invalid playback config")
	ErrSuperseded    = errors.New("playback superseded by a newer run")
)

// EventKind names the state change that produced a Snapshot.
type EventKind string

const (
	EventIdle     EventKind = "idle"
	EventReset    EventKind = "reset"
	EventStep     EventKind = "step"
	EventEdgeDone EventKind = "edge_done"
	EventDone     EventKind = "done"
	EventHalt     EventKind = "halt"
)

type Config struct {
	// Number of equal sub-steps an edge is divided into.
	StepsPerEdge int
	// Pause after every sub-step.
	FrameDelay time.Duration
}

func DefaultConfig() Config {
	return Config{StepsPerEdge: 30, FrameDelay: 50 * time.Millisecond}
}

func (c Config) Validate() error {
	if c.StepsPerEdge < 1 {
		return fmt.Errorf("steps per edge must be positive, got %d: %w", c.StepsPerEdge, ErrInvalidConfig)
	}
	if c.FrameDelay < 0 {
		return fmt.Errorf("frame delay must not be negative, got %s: %w", c.FrameDelay, ErrInvalidConfig)
	}
	return nil
}

// Snapshot is one committed, immutable view of playback state.
// Readers always see a whole snapshot; a newer one replaces it atomically.
type Snapshot struct {
	Generation uint64                 `json:"generation"`
	Event      EventKind              `json:"event"`
	Running    bool                   `json:"running"`
	Tour       domain.Tour            `json:"tour"`
	Animation  *domain.AnimationState `json:"animation"`
	Trail      []domain.Edge          `json:"trail"`
}

// Playback is the handle of one run started by Scheduler.Start.
type Playback struct {
	Generation uint64
	Edges      []domain.Edge

	done chan struct{}
	err  error
}

// Done is closed when the run has stopped, whether completed, superseded or cancelled.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Err reports why the run stopped: nil on completion, ErrSuperseded when a newer
// run or a halt took over, or the context error when the run's context ended.
// It is only meaningful after Done is closed.
func (p *Playback) Err() error {
	<-p.done
	return p.err
}

type observer struct {
	id int
	fn func(Snapshot)
}

// Scheduler walks a tour edge by edge, publishing an interpolated marker
// position after every sub-step and promoting finished edges to the trail.
//
// Each run owns a generation number. Every state mutation is committed through
// a check against the current generation, so continuations of a superseded run
// wake up into a no-op instead of writing stale state.
type Scheduler struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	trail     Trail
	observers []observer
	nextObs   int

	current atomic.Pointer[Snapshot]
}

func NewScheduler(cfg Config, clock Clock) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	if clock == nil {
		clock = RealClock{}
	}

	s := &Scheduler{cfg: cfg, clock: clock}
	s.current.Store(&Snapshot{Event: EventIdle})
	return s, nil
}

func (s *Scheduler) Config() Config { return s.cfg }

// Snapshot returns the latest committed state.
func (s *Scheduler) Snapshot() Snapshot { return *s.current.Load() }

// Subscribe registers fn to be called with every committed snapshot, in commit
// order. fn runs while the scheduler lock is held and must not call back into
// the Scheduler. The returned func removes the subscription.
func (s *Scheduler) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, observer{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
	}
}

// Start supersedes any in-flight run, clears the trail and begins animating tour.
// The run lives until it completes, is superseded, or ctx ends; callers that
// start runs from short-lived request contexts should detach them first.
func (s *Scheduler) Start(ctx context.Context, tour domain.Tour) (*Playback, error) {
	if err := tour.Validate(len(tour)); err != nil {
		return nil, fmt.Errorf("start playback: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.cancel = cancel
	s.trail.Reset()

	pb := &Playback{
		Generation: s.gen,
		Edges:      tour.Edges(),
		done:       make(chan struct{}),
	}
	s.publishLocked(&Snapshot{
		Generation: s.gen,
		Event:      EventReset,
		Running:    true,
		Tour:       slices.Clone(tour),
		Trail:      []domain.Edge{},
	})
	s.mu.Unlock()

	go s.run(runCtx, cancel, pb)

	return pb, nil
}

// Halt supersedes the current run without starting another one.
// The marker is cleared and the trail drawn so far stays visible.
func (s *Scheduler) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++

	next := *s.current.Load()
	next.Generation = s.gen
	next.Event = EventHalt
	next.Running = false
	next.Animation = nil
	s.publishLocked(&next)
}

// Clear supersedes the current run and empties the trail, leaving nothing to
// draw but the locations. Used when the location set itself is replaced.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.trail.Reset()

	s.publishLocked(&Snapshot{
		Generation: s.gen,
		Event:      EventReset,
		Trail:      []domain.Edge{},
	})
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, pb *Playback) {
	defer close(pb.done)
	defer cancel()

	steps := s.cfg.StepsPerEdge
	for i, e := range pb.Edges {
		for step := 0; step <= steps; step++ {
			state := &domain.AnimationState{
				EdgeIndex: i,
				Edge:      e,
				Progress:  float64(step) / float64(steps),
			}
			if !s.commit(pb.Generation, EventStep, func(next *Snapshot) { next.Animation = state }) {
				pb.err = ErrSuperseded
				return
			}

			if err := s.clock.Sleep(ctx, s.cfg.FrameDelay); err != nil {
				pb.err = s.stop(pb.Generation, err)
				return
			}
		}

		edge := e
		ok := s.commit(pb.Generation, EventEdgeDone, func(next *Snapshot) {
			s.trail.Append(edge)
			next.Trail = s.trail.All()
		})
		if !ok {
			pb.err = ErrSuperseded
			return
		}
	}

	if !s.commit(pb.Generation, EventDone, func(next *Snapshot) {
		next.Running = false
		next.Animation = nil
	}) {
		pb.err = ErrSuperseded
	}
}

// stop ends a run whose sleep was interrupted. If the run is still current the
// interruption came from its own context, so the marker is cleared in place.
func (s *Scheduler) stop(gen uint64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return ErrSuperseded
	}
	s.cancel = nil

	next := *s.current.Load()
	next.Event = EventHalt
	next.Running = false
	next.Animation = nil
	s.publishLocked(&next)
	return cause
}

// commit applies fn to a copy of the current snapshot and publishes it,
// unless gen no longer owns the scheduler.
func (s *Scheduler) commit(gen uint64, ev EventKind, fn func(next *Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}

	next := *s.current.Load()
	next.Event = ev
	fn(&next)
	s.publishLocked(&next)
	return true
}

func (s *Scheduler) publishLocked(snap *Snapshot) {
	s.current.Store(snap)
	for _, o := range s.observers {
		o.fn(*snap)
	}
}
