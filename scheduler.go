package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for the scheduler.
var WithLogger = func(log *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithLogr sets the logger from a logr.Logger.
var WithLogr = func(log logr.Logger) Option {
	return func(s *Scheduler) {
		s.log = slog.New(logr.ToSlogHandler(log))
	}
}

// WithWorkers sets the number of unconstrained workers. Unconstrained
// workers execute only tasks with an empty constraint set.
var WithWorkers = func(n int) Option {
	return func(s *Scheduler) {
		s.workers[anyGroup] = n
	}
}

// WithGroupWorkers adds n workers bound to the given thread group.
var WithGroupWorkers = func(group string, n int) Option {
	return func(s *Scheduler) {
		s.workers[group] = n
	}
}

type workerGroupKey struct{}

// WorkerGroup returns the thread group of the worker executing the current
// firing, or "" for an unconstrained worker (and outside of firings).
func WorkerGroup(ctx context.Context) string {
	group, _ := ctx.Value(workerGroupKey{}).(string)
	return group
}

// Scheduler drives a pipeline to completion on a constraint-aware worker
// pool. Workers are partitioned into thread groups; a task with a non-empty
// constraint set is dispatched only to workers whose group is a member of
// the set. When several tasks are runnable at once, the lowest node index
// wins.
type Scheduler struct {
	p       *Pipeline
	log     *slog.Logger
	workers map[string]int

	containers []*TaskContainer
	cond       *condition

	mu        sync.Mutex
	running   []bool
	completed bool

	runCtx context.Context
}

func NewScheduler(p *Pipeline, opts ...Option) *Scheduler {
	s := &Scheduler{
		p:       p,
		log:     NullLogger(),
		workers: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.workers) == 0 {
		s.workers[anyGroup] = runtime.NumCPU()
	}
	return s
}

// Run builds the pipeline and executes it until every container is
// finished. It returns the first node error, or the context error if ctx
// is cancelled first.
func (s *Scheduler) Run(ctx context.Context) error {
	containers, err := s.p.Build()
	if err != nil {
		return err
	}
	s.containers = containers
	s.running = make([]bool, len(containers))
	s.cond = newCondition()

	if err := s.checkConstraints(); err != nil {
		return err
	}

	runID := uuid.NewString()
	s.log.Info("Starting pipeline", "run", runID, "nodes", len(containers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runCtx = runCtx

	for i := range containers {
		i := i
		containers[i].setNotify(func() {
			s.onActivity(i)
		})
	}

	p := newPool(s.cond)
	for group, n := range s.workers {
		for i := 0; i < n; i++ {
			p.spawn(group, s.step)
		}
	}

	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.cond.terminate()
		case <-stopWatch:
		}
	}()

	// Initial sweep: fire up sources, settle nodes that are already
	// exhausted (nothing was ever going to feed them).
	for i := range containers {
		propagateFinished(containers, i)
		s.notifyFor(i)
	}
	s.maybeComplete()

	werr := p.wait()
	close(stopWatch)

	s.mu.Lock()
	completed := s.completed
	s.mu.Unlock()

	for _, c := range containers {
		werr = multierr.Append(werr, c.Close())
	}

	if werr != nil {
		s.log.Error("Pipeline failed", "run", runID, "error", werr)
		return werr
	}
	if !completed {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("pipeline stopped before completion")
	}
	s.log.Info("Pipeline finished", "run", runID)
	return nil
}

// checkConstraints verifies that every constrained task has at least one
// compatible worker group before anything fires.
func (s *Scheduler) checkConstraints() error {
	for _, c := range s.containers {
		if c.constraints.Empty() {
			continue
		}
		ok := false
		for group := range s.workers {
			if c.constraints.Contains(group) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("node %q: wants %v: %w", c.name, c.constraints.Names(), ErrConstraintUnsatisfiable)
		}
	}
	return nil
}

// step is one worker iteration: pick the lowest-index runnable task
// compatible with the worker's group, fire it, then settle readiness and
// termination bookkeeping.
func (s *Scheduler) step(group string) error {
	s.mu.Lock()
	idx := s.pick(group)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.running[idx] = true
	// Hand off remaining work to a sibling before firing.
	if s.pick(group) >= 0 {
		s.cond.notify(group)
	}
	s.mu.Unlock()

	c := s.containers[idx]
	s.log.Debug("Firing", "node", c.name, "worker_group", group)
	err := c.Run(context.WithValue(s.runCtx, workerGroupKey{}, group))

	s.mu.Lock()
	s.running[idx] = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("Node failed", "node", c.name, "error", err)
		s.cond.terminate()
		return err
	}

	propagateFinished(s.containers, idx)
	s.notifyFor(idx)
	s.maybeComplete()
	return nil
}

// pick returns the lowest-index container that is runnable on a worker of
// the given group, or -1. Caller holds s.mu.
func (s *Scheduler) pick(group string) int {
	for i, c := range s.containers {
		if s.running[i] || !c.CanRun() {
			continue
		}
		if !c.constraints.Empty() && !c.constraints.Contains(group) {
			continue
		}
		return i
	}
	return -1
}

// onActivity runs on every push into one of container i's queues and on
// every exhaustion signal, from whatever goroutine produced it.
func (s *Scheduler) onActivity(i int) {
	propagateFinished(s.containers, i)
	s.notifyFor(i)
	s.maybeComplete()
}

// notifyFor wakes workers that could execute container i.
func (s *Scheduler) notifyFor(i int) {
	c := s.containers[i]
	if !c.CanRun() {
		return
	}
	if c.constraints.Empty() {
		s.cond.notify(anyGroup)
		return
	}
	for _, group := range c.constraints.Names() {
		s.cond.notify(group)
	}
}

// maybeComplete terminates the gate once every container is finished and
// no firing is in flight.
func (s *Scheduler) maybeComplete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	for i, c := range s.containers {
		if s.running[i] || !c.IsFinished() {
			s.mu.Unlock()
			return
		}
	}
	s.completed = true
	s.mu.Unlock()
	s.cond.terminate()
}

// propagateFinished settles the termination state of container i and, when
// it transitions to finished, marks the producer side of every follower
// slot as exhausted and settles that follower in turn.
func propagateFinished(containers []*TaskContainer, i int) {
	if containers[i].refreshFinished() {
		for _, f := range containers[i].followers {
			containers[f.node].markUpstreamDone(f.slot)
			propagateFinished(containers, f.node)
		}
	}
}
