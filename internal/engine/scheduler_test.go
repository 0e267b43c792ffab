package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-playback-service/internal/domain"
)

// instantClock never blocks but still honours cancellation.
type instantClock struct{}

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// gateClock parks every sleeper until release is closed and ignores ctx, so a
// superseded run really does wake up and try to write.
type gateClock struct {
	entered chan struct{}
	release chan struct{}
}

func newGateClock() *gateClock {
	return &gateClock{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (c *gateClock) Sleep(_ context.Context, _ time.Duration) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	<-c.release
	return nil
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) observe(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func waitDone(t *testing.T, pb *Playback) {
	t.Helper()
	select {
	case <-pb.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("playback %d did not finish", pb.Generation)
	}
}

func newTestScheduler(t *testing.T, steps int, clock Clock) *Scheduler {
	t.Helper()
	s, err := NewScheduler(Config{StepsPerEdge: steps, FrameDelay: time.Millisecond}, clock)
	require.NoError(t, err)
	return s
}

func TestSchedulerThreeStopScenario(t *testing.T) {
	s := newTestScheduler(t, 30, instantClock{})
	rec := &recorder{}
	s.Subscribe(rec.observe)

	pb, err := s.Start(context.Background(), domain.Tour{0, 1, 2})
	require.NoError(t, err)
	waitDone(t, pb)
	require.NoError(t, pb.Err())

	want := []domain.Edge{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 0}}
	assert.Equal(t, want, pb.Edges)

	final := s.Snapshot()
	assert.False(t, final.Running)
	assert.Nil(t, final.Animation)
	assert.Equal(t, EventDone, final.Event)
	assert.Equal(t, want, final.Trail)

	var edgeDone []domain.Edge
	for _, snap := range rec.all() {
		if snap.Event == EventEdgeDone {
			edgeDone = append(edgeDone, snap.Trail[len(snap.Trail)-1])
		}
	}
	assert.Equal(t, want, edgeDone)
}

func TestSchedulerProgressIsMonotonicWithinEdge(t *testing.T) {
	const steps = 5
	s := newTestScheduler(t, steps, instantClock{})
	rec := &recorder{}
	s.Subscribe(rec.observe)

	pb, err := s.Start(context.Background(), domain.Tour{3, 1, 0, 2})
	require.NoError(t, err)
	waitDone(t, pb)

	lastEdge := -1
	lastProgress := 0.0
	stepCount := 0
	for _, snap := range rec.all() {
		if snap.Event != EventStep {
			continue
		}
		stepCount++
		a := snap.Animation
		require.NotNil(t, a)
		require.GreaterOrEqual(t, a.Progress, 0.0)
		require.LessOrEqual(t, a.Progress, 1.0)

		if a.EdgeIndex != lastEdge {
			require.Equal(t, lastEdge+1, a.EdgeIndex, "edges must advance one at a time")
			require.Equal(t, 0.0, a.Progress, "progress resets at an edge boundary")
			if lastEdge >= 0 {
				require.Equal(t, 1.0, lastProgress, "previous edge must reach the end")
			}
		} else {
			require.Greater(t, a.Progress, lastProgress)
		}
		// The trail always holds exactly the edges before the current one.
		require.Len(t, snap.Trail, a.EdgeIndex)

		lastEdge, lastProgress = a.EdgeIndex, a.Progress
	}
	assert.Equal(t, 4*(steps+1), stepCount)
	assert.Equal(t, 3, lastEdge)
}

func TestSchedulerTrailHasNoDuplicates(t *testing.T) {
	s := newTestScheduler(t, 3, instantClock{})
	pb, err := s.Start(context.Background(), domain.Tour{4, 2, 0, 1, 3})
	require.NoError(t, err)
	waitDone(t, pb)

	trail := s.Snapshot().Trail
	require.Len(t, trail, 5)
	seen := map[domain.Edge]bool{}
	for _, e := range trail {
		require.False(t, seen[e], "edge %v repeated", e)
		seen[e] = true
	}
}

func TestSchedulerSingleStopSelfEdge(t *testing.T) {
	s := newTestScheduler(t, 4, instantClock{})
	pb, err := s.Start(context.Background(), domain.Tour{0})
	require.NoError(t, err)
	waitDone(t, pb)

	require.NoError(t, pb.Err())
	assert.Equal(t, []domain.Edge{{From: 0, To: 0}}, s.Snapshot().Trail)
}

func TestSchedulerRejectsInvalidTour(t *testing.T) {
	s := newTestScheduler(t, 4, instantClock{})

	_, err := s.Start(context.Background(), domain.Tour{0, 1, 1})
	require.ErrorIs(t, err, domain.ErrTourDuplicate)

	_, err = s.Start(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrEmptyTour)
	assert.Equal(t, uint64(0), s.Snapshot().Generation)
}

func TestSchedulerSupersededRunWritesNothing(t *testing.T) {
	clock := newGateClock()
	s := newTestScheduler(t, 2, clock)
	rec := &recorder{}
	s.Subscribe(rec.observe)

	first, err := s.Start(context.Background(), domain.Tour{0, 1, 2})
	require.NoError(t, err)
	<-clock.entered

	second, err := s.Start(context.Background(), domain.Tour{2, 1, 0})
	require.NoError(t, err)
	<-clock.entered

	close(clock.release)
	waitDone(t, first)
	waitDone(t, second)

	assert.ErrorIs(t, first.Err(), ErrSuperseded)
	assert.NoError(t, second.Err())

	takeover := -1
	for i, snap := range rec.all() {
		if snap.Generation == second.Generation {
			takeover = i
			break
		}
	}
	require.GreaterOrEqual(t, takeover, 0)
	for _, snap := range rec.all()[takeover:] {
		assert.Equal(t, second.Generation, snap.Generation, "stale write from superseded run: %+v", snap)
	}

	assert.Equal(t, []domain.Edge{{From: 2, To: 1}, {From: 1, To: 0}, {From: 0, To: 2}}, s.Snapshot().Trail)
}

func TestSchedulerHaltKeepsTrail(t *testing.T) {
	clock := newGateClock()
	s := newTestScheduler(t, 1, clock)

	pb, err := s.Start(context.Background(), domain.Tour{0, 1, 2})
	require.NoError(t, err)
	<-clock.entered

	s.Halt()
	snap := s.Snapshot()
	assert.False(t, snap.Running)
	assert.Nil(t, snap.Animation)
	assert.Equal(t, EventHalt, snap.Event)
	assert.Empty(t, snap.Trail)

	close(clock.release)
	waitDone(t, pb)
	assert.ErrorIs(t, pb.Err(), ErrSuperseded)
	assert.Equal(t, snap, s.Snapshot(), "halted run must not write after waking")
}

func TestSchedulerContextCancelStopsRun(t *testing.T) {
	s, err := NewScheduler(Config{StepsPerEdge: 2, FrameDelay: time.Hour}, RealClock{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	pb, err := s.Start(ctx, domain.Tour{0, 1})
	require.NoError(t, err)

	cancel()
	waitDone(t, pb)

	assert.ErrorIs(t, pb.Err(), context.Canceled)
	snap := s.Snapshot()
	assert.False(t, snap.Running)
	assert.Nil(t, snap.Animation)
}

func TestSchedulerSnapshotsAreIndependent(t *testing.T) {
	s := newTestScheduler(t, 1, instantClock{})
	rec := &recorder{}
	s.Subscribe(rec.observe)

	pb, err := s.Start(context.Background(), domain.Tour{0, 1, 2})
	require.NoError(t, err)
	waitDone(t, pb)

	var lens []int
	for _, snap := range rec.all() {
		if snap.Event == EventEdgeDone {
			lens = append(lens, len(snap.Trail))
		}
	}
	assert.Equal(t, []int{1, 2, 3}, lens)
}

func TestSchedulerUnsubscribe(t *testing.T) {
	s := newTestScheduler(t, 1, instantClock{})
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.observe)
	unsubscribe()

	pb, err := s.Start(context.Background(), domain.Tour{0, 1})
	require.NoError(t, err)
	waitDone(t, pb)

	assert.Empty(t, rec.all())
}

func TestConfigValidate(t *testing.T) {
	_, err := NewScheduler(Config{StepsPerEdge: 0}, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewScheduler(Config{StepsPerEdge: 1, FrameDelay: -time.Second}, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 30, DefaultConfig().StepsPerEdge)
	assert.Equal(t, 50*time.Millisecond, DefaultConfig().FrameDelay)
}

func TestSchedulerClearEmptiesTrail(t *testing.T) {
	s := newTestScheduler(t, 1, instantClock{})
	pb, err := s.Start(context.Background(), domain.Tour{0, 1})
	require.NoError(t, err)
	waitDone(t, pb)
	require.Len(t, s.Snapshot().Trail, 2)

	s.Clear()
	snap := s.Snapshot()
	assert.Empty(t, snap.Trail)
	assert.Nil(t, snap.Tour)
	assert.False(t, snap.Running)
	assert.Equal(t, pb.Generation+1, snap.Generation)
}
