package taskgraph

import "golang.org/x/sync/errgroup"

// pool runs worker goroutines parameterized by (function, group), gated by
// a shared condition. Each worker loops `for cond.wait(group) { fn() }`;
// close terminates the condition and joins all workers.
type pool struct {
	cond *condition
	eg   errgroup.Group
}

func newPool(cond *condition) *pool {
	return &pool{cond: cond}
}

// spawn starts one worker bound to the given group. fn is invoked once per
// consumed permit and may return an error, which stops that worker and is
// reported by close.
func (p *pool) spawn(group string, fn func(group string) error) {
	p.eg.Go(func() error {
		for p.cond.wait(group) {
			if err := fn(group); err != nil {
				return err
			}
		}
		return nil
	})
}

// wait joins the workers. They exit once the condition is terminated, by
// whoever decides the pool is done: completion detection, a worker error,
// or cancellation. Returns the first worker error.
func (p *pool) wait() error {
	return p.eg.Wait()
}

// close terminates the condition and waits for every worker to drain,
// returning the first worker error.
func (p *pool) close() error {
	p.cond.terminate()
	return p.eg.Wait()
}
