package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
)

// SimpleScheduler drives a pipeline on the calling goroutine, round-robin,
// lowest node index first. It blocks between firings on a condition
// variable woken by external writers. Because its single worker carries no
// thread group, it refuses pipelines containing constrained tasks.
type SimpleScheduler struct {
	p   *Pipeline
	log *slog.Logger

	mu    sync.Mutex
	cv    *sync.Cond
	dirty bool
}

func NewSimpleScheduler(p *Pipeline) *SimpleScheduler {
	s := &SimpleScheduler{p: p, log: NullLogger()}
	s.cv = sync.NewCond(&s.mu)
	return s
}

func (s *SimpleScheduler) SetLogger(log *slog.Logger) {
	s.log = log
}

// Run executes the pipeline to completion. External writers may feed
// inputs from other goroutines while Run blocks.
func (s *SimpleScheduler) Run(ctx context.Context) error {
	containers, err := s.p.Build()
	if err != nil {
		return err
	}

	for _, c := range containers {
		if !c.constraints.Empty() {
			return fmt.Errorf("node %q: wants %v: %w", c.name, c.constraints.Names(), ErrConstraintUnsatisfiable)
		}
	}

	for i := range containers {
		containers[i].setNotify(func() {
			s.mu.Lock()
			s.dirty = true
			s.mu.Unlock()
			s.cv.Broadcast()
		})
	}

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			s.cv.Broadcast()
		case <-stopWatch:
		}
	}()

	for i := range containers {
		propagateFinished(containers, i)
	}

	runErr := s.loop(ctx, containers)

	var closeErr error
	for _, c := range containers {
		closeErr = multierr.Append(closeErr, c.Close())
	}
	return multierr.Append(runErr, closeErr)
}

func (s *SimpleScheduler) loop(ctx context.Context, containers []*TaskContainer) error {
	for {
		fired := true
		for fired {
			fired = false
			for i, c := range containers {
				if !c.CanRun() {
					continue
				}
				s.log.Debug("Firing", "node", c.name)
				if err := c.Run(ctx); err != nil {
					return err
				}
				propagateFinished(containers, i)
				fired = true
			}
		}

		finished := true
		for _, c := range containers {
			if !c.IsFinished() {
				finished = false
				break
			}
		}
		if finished {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		for !s.dirty && ctx.Err() == nil {
			s.cv.Wait()
		}
		s.dirty = false
		s.mu.Unlock()
	}
}
