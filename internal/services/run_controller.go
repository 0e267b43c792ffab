package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/engine"
	"tour-playback-service/internal/platform/obs"
	"tour-playback-service/internal/ports"
	"tour-playback-service/internal/render"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSolving   Phase = "solving"
	PhaseAnimating Phase = "animating"
)

const (
	eventQueueSize = 256
	publishTimeout = 5 * time.Second
	archiveTimeout = 5 * time.Second
	// Generations older than this are forgotten when mapping events to run ids.
	runTagWindow = 16
)

type SolveParams struct {
	SupplyWeight float64
	StressFactor float64
}

// View is a consistent read model of the controller and the playback it drives.
type View struct {
	Phase         Phase
	RunID         string
	Locations     []domain.Location
	Overlay       domain.Overlay
	Playback      engine.Snapshot
	Tour          domain.Tour
	Cost          float64
	TotalSupply   float64
	SupplyWeight  float64
	StressFactor  float64
	TotalWeight   float64
	WeatherMatrix [][]float64
	LastError     string
	// Bumped on every controller-side change; playback steps do not bump it.
	Version uint64
}

// Scene is the part of the view the compositor draws.
func (v View) Scene() render.Scene {
	return render.Scene{
		Locations: v.Locations,
		Trail:     v.Playback.Trail,
		Animation: v.Playback.Animation,
		Overlay:   v.Overlay,
	}
}

type ControllerDeps struct {
	Scheduler *engine.Scheduler
	Solver    ports.Solver
	// Optional collaborators.
	Runs     ports.RunRepository
	Datasets ports.DatasetRepository
	Events   ports.EventPublisher
	Hub      *Hub
	Rand     *rand.Rand
}

type runTag struct {
	runID string
	cost  float64
}

// RunController drives the Idle → Solving → Animating → Idle lifecycle.
//
// Lock order is controller then scheduler. Scheduler observers run under the
// scheduler lock, so the one registered here only signals the hub and queues
// events; anything needing the controller lock happens on other goroutines.
type RunController struct {
	sched    *engine.Scheduler
	solver   ports.Solver
	runs     ports.RunRepository
	datasets ports.DatasetRepository
	events   ports.EventPublisher
	hub      *Hub
	now      func() time.Time

	// Playback outlives the request that started it.
	baseCtx  context.Context
	stopBase context.CancelFunc

	queue       chan domain.RunEvent
	done        chan struct{}
	pumpDone    chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	mu          sync.Mutex
	rng         *rand.Rand
	phase       Phase
	csv         string
	locations   []domain.Location
	overlay     domain.Overlay
	params      SolveParams
	result      *domain.SolveResult
	runID       string
	playGen     uint64
	solveSeq    uint64
	cancelSolve context.CancelFunc
	lastError   string
	version     uint64
	tags        map[uint64]runTag
}

func NewRunController(deps ControllerDeps) (*RunController, error) {
	if deps.Scheduler == nil {
		return nil, errors.New("new run controller: scheduler is required")
	}
	if deps.Solver == nil {
		return nil, errors.New("new run controller: solver is required")
	}

	hub := deps.Hub
	if hub == nil {
		hub = NewHub()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	baseCtx, stop := context.WithCancel(context.Background())
	c := &RunController{
		sched:    deps.Scheduler,
		solver:   deps.Solver,
		runs:     deps.Runs,
		datasets: deps.Datasets,
		events:   deps.Events,
		hub:      hub,
		now:      time.Now,
		baseCtx:  baseCtx,
		stopBase: stop,
		queue:    make(chan domain.RunEvent, eventQueueSize),
		done:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		rng:      rng,
		phase:    PhaseIdle,
		tags:     make(map[uint64]runTag),
	}

	c.unsubscribe = c.sched.Subscribe(c.observe)
	go c.pump()

	return c, nil
}

// Hub signals every state change, playback steps included.
func (c *RunController) Hub() *Hub { return c.hub }

// Close halts playback and flushes queued events.
func (c *RunController) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.cancelSolve != nil {
			c.cancelSolve()
			c.cancelSolve = nil
		}
		c.sched.Halt()
		c.mu.Unlock()

		c.unsubscribe()
		c.stopBase()
		close(c.done)
		<-c.pumpDone
	})
}

// LoadLocations replaces the location set with the names parsed from csvText.
// Any animation and any solve still waiting are superseded, the trail is
// cleared and placeholder weather is drawn for the new set.
func (c *RunController) LoadLocations(csvText string) (View, error) {
	locs, err := ParseLocations(csvText)
	if err != nil {
		return c.View(), fmt.Errorf("load locations: %w", err)
	}

	c.mu.Lock()
	c.solveSeq++
	if c.cancelSolve != nil {
		c.cancelSolve()
		c.cancelSolve = nil
	}
	c.sched.Clear()

	c.csv = csvText
	c.locations = locs
	c.overlay = domain.Overlay{Weather: domain.RandomWeather(len(locs), c.rng)}
	c.result = nil
	c.runID = ""
	c.playGen = 0
	c.phase = PhaseIdle
	c.lastError = ""
	c.touchLocked()
	v := c.viewLocked()
	c.mu.Unlock()

	log.Printf("locations loaded: count=%d", len(locs))
	return v, nil
}

// LoadDataset loads the named seeded data set.
func (c *RunController) LoadDataset(ctx context.Context, name string) (View, error) {
	if c.datasets == nil {
		return c.View(), fmt.Errorf("load dataset %q: %w", name, domain.ErrDatasetNotFound)
	}

	ds, err := c.datasets.GetDataset(ctx, name)
	if err != nil {
		return c.View(), fmt.Errorf("load dataset %q: %w", name, err)
	}
	return c.LoadLocations(ds.CSVData)
}

// Datasets lists the names LoadDataset accepts.
func (c *RunController) Datasets(ctx context.Context) ([]string, error) {
	if c.datasets == nil {
		return []string{}, nil
	}
	names, err := c.datasets.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return names, nil
}

// Solve asks the solver for a tour over the loaded locations and starts
// animating it. The in-flight playback is halted first. A newer Solve
// supersedes this one while it still waits on the solver; the older call then
// returns ErrSolveSuperseded and changes nothing.
//
// A solver failure leaves the controller Idle with LastError holding the
// solver's message; the trail is not touched. There are no retries here.
func (c *RunController) Solve(ctx context.Context, p SolveParams) (_ View, err error) {
	defer obs.Time(ctx, "services.Solve")(&err)

	if p.SupplyWeight < 0 || p.StressFactor < 0 {
		return c.View(), fmt.Errorf("solve: %w: supply weight and stress factor must be non-negative", ErrInvalidInput)
	}

	c.mu.Lock()
	if len(c.locations) == 0 {
		c.mu.Unlock()
		return c.View(), fmt.Errorf("solve: %w: %w", ErrInvalidInput, ErrNoLocations)
	}

	c.solveSeq++
	seq := c.solveSeq
	if c.cancelSolve != nil {
		c.cancelSolve()
	}
	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelSolve = cancel

	c.sched.Halt()
	c.phase = PhaseSolving
	c.lastError = ""
	c.touchLocked()

	req := domain.SolveRequest{
		CSVData:      c.csv,
		WeatherMap:   maps.Clone(c.overlay.Weather),
		SupplyWeight: p.SupplyWeight,
		StressFactor: p.StressFactor,
	}
	c.mu.Unlock()

	res, solveErr := c.solver.Solve(solveCtx, req)
	return c.finishSolve(seq, p, res, solveErr)
}

// Update draws fresh placeholder weather and solves again.
func (c *RunController) Update(ctx context.Context, p SolveParams) (View, error) {
	c.mu.Lock()
	if n := len(c.locations); n > 0 {
		c.overlay.Weather = domain.RandomWeather(n, c.rng)
		c.touchLocked()
	}
	c.mu.Unlock()

	return c.Solve(ctx, p)
}

func (c *RunController) finishSolve(seq uint64, p SolveParams, res *domain.SolveResult, solveErr error) (View, error) {
	c.mu.Lock()

	if seq != c.solveSeq {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, fmt.Errorf("solve: %w", ErrSolveSuperseded)
	}
	c.cancelSolve = nil

	if solveErr != nil {
		v := c.failLocked(solverMessage(solveErr))
		c.mu.Unlock()
		return v, fmt.Errorf("solve: %w", solveErr)
	}

	if res == nil {
		v := c.failLocked("solver returned no result")
		c.mu.Unlock()
		return v, errors.New("solve: solver returned no result")
	}

	if err := res.Tour.Validate(len(c.locations)); err != nil {
		v := c.failLocked(err.Error())
		c.mu.Unlock()
		return v, fmt.Errorf("solve: unusable tour: %w", err)
	}

	pb, err := c.sched.Start(c.baseCtx, res.Tour)
	if err != nil {
		v := c.failLocked(err.Error())
		c.mu.Unlock()
		return v, fmt.Errorf("solve: %w", err)
	}

	runID := uuid.NewString()
	c.result = res
	c.params = p
	c.overlay.Demand = maps.Clone(res.Demand)
	if len(res.WeatherMatrix) > 0 {
		c.overlay.Weather = domain.WeatherFromMatrix(res.WeatherMatrix)
	}
	c.runID = runID
	c.playGen = pb.Generation
	c.phase = PhaseAnimating
	c.tagLocked(pb.Generation, runTag{runID: runID, cost: res.Cost})
	c.touchLocked()
	v := c.viewLocked()

	rec := &domain.RunRecord{
		RunID:        runID,
		Status:       domain.RunAnimating,
		Cities:       locationNames(c.locations),
		Tour:         slices.Clone(res.Tour),
		Cost:         res.Cost,
		TotalSupply:  res.TotalSupply,
		SupplyWeight: p.SupplyWeight,
		StressFactor: p.StressFactor,
		CreatedAt:    c.now(),
	}
	c.mu.Unlock()

	log.Printf("run started: run_id=%s gen=%d stops=%d cost=%.2f", runID, pb.Generation, len(res.Tour), res.Cost)

	c.archive(rec)
	go c.watch(pb, runID)

	return v, nil
}

// failLocked returns to Idle after a failed solve, leaving trail and overlay as they were.
func (c *RunController) failLocked(msg string) View {
	c.phase = PhaseIdle
	c.lastError = msg
	c.touchLocked()
	c.emit(domain.RunEvent{Type: domain.RunSolveError, Message: msg})

	log.Printf("solve failed: msg=%q", msg)
	return c.viewLocked()
}

// watch settles the lifecycle once a playback stops.
func (c *RunController) watch(pb *engine.Playback, runID string) {
	<-pb.Done()

	status, evType := domain.RunCompleted, domain.RunFinished
	if pb.Err() != nil {
		status, evType = domain.RunSuperseded, domain.RunReplaced
	}

	c.mu.Lock()
	if c.playGen == pb.Generation && c.phase == PhaseAnimating {
		c.phase = PhaseIdle
		c.touchLocked()
	}
	c.mu.Unlock()

	if c.runs != nil {
		ctx, cancel := context.WithTimeout(obs.WithRunID(context.Background(), runID), archiveTimeout)
		defer cancel()
		if err := c.runs.FinishRun(ctx, runID, status, c.now()); err != nil {
			log.Printf("finish run failed: run_id=%s status=%s err=%v", runID, status, err)
		}
	}

	c.emit(domain.RunEvent{Type: evType, RunID: runID, Generation: pb.Generation})
	log.Printf("run stopped: run_id=%s gen=%d status=%s", runID, pb.Generation, status)
}

func (c *RunController) archive(rec *domain.RunRecord) {
	if c.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(obs.WithRunID(context.Background(), rec.RunID), archiveTimeout)
	defer cancel()

	if err := c.runs.SaveRun(ctx, rec); err != nil {
		log.Printf("save run failed: run_id=%s err=%v", rec.RunID, err)
	}
}

// History returns archived runs, newest first.
func (c *RunController) History(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if c.runs == nil {
		return []*domain.RunRecord{}, nil
	}
	recs, err := c.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	return recs, nil
}

// View returns the current read model.
func (c *RunController) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *RunController) viewLocked() View {
	v := View{
		Phase:        c.phase,
		RunID:        c.runID,
		Locations:    slices.Clone(c.locations),
		Overlay:      c.overlay.Clone(),
		Playback:     c.sched.Snapshot(),
		SupplyWeight: c.params.SupplyWeight,
		StressFactor: c.params.StressFactor,
		LastError:    c.lastError,
		Version:      c.version,
	}
	if r := c.result; r != nil {
		v.Tour = slices.Clone(r.Tour)
		v.Cost = r.Cost
		v.TotalSupply = r.TotalSupply
		v.TotalWeight = r.TotalSupply * c.params.SupplyWeight
		v.WeatherMatrix = r.WeatherMatrix
	}
	return v
}

func (c *RunController) touchLocked() {
	c.version++
	c.hub.Notify()
}

func (c *RunController) tagLocked(gen uint64, tag runTag) {
	c.tags[gen] = tag
	for g := range c.tags {
		if g+runTagWindow < gen {
			delete(c.tags, g)
		}
	}
}

// observe runs under the scheduler lock.
func (c *RunController) observe(s engine.Snapshot) {
	c.hub.Notify()

	switch {
	case s.Event == engine.EventReset && s.Running:
		c.emit(domain.RunEvent{Type: domain.RunStarted, Generation: s.Generation, Tour: s.Tour})
	case s.Event == engine.EventEdgeDone && len(s.Trail) > 0:
		e := s.Trail[len(s.Trail)-1]
		c.emit(domain.RunEvent{Type: domain.RunEdgeDone, Generation: s.Generation, Edge: &e})
	}
}

// emit queues ev without blocking; a full queue drops it.
func (c *RunController) emit(ev domain.RunEvent) {
	if c.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = c.now()
	}

	select {
	case c.queue <- ev:
	default:
		log.Printf("run event dropped: type=%s gen=%d reason=queue_full", ev.Type, ev.Generation)
	}
}

func (c *RunController) pump() {
	defer close(c.pumpDone)

	for {
		select {
		case ev := <-c.queue:
			c.deliver(ev)
		case <-c.done:
			for {
				select {
				case ev := <-c.queue:
					c.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (c *RunController) deliver(ev domain.RunEvent) {
	if ev.RunID == "" && ev.Generation != 0 {
		c.mu.Lock()
		tag, ok := c.tags[ev.Generation]
		c.mu.Unlock()
		if ok {
			ev.RunID = tag.runID
			if ev.Type == domain.RunStarted {
				ev.Cost = tag.cost
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := c.events.Publish(ctx, ev); err != nil {
		log.Printf("publish run event failed: type=%s run_id=%s err=%v", ev.Type, ev.RunID, err)
	}
}

// solverMessage extracts the human-readable text of a solver failure.
func solverMessage(err error) string {
	var se *domain.SolverError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func locationNames(locs []domain.Location) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.Name)
	}
	return out
}
