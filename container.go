package taskgraph

import (
	"context"
	"fmt"
	"sync/atomic"
)

// follower is one resolved edge: the node at index node consumes one of our
// outputs through its input slot.
type follower struct {
	node int
	slot int
}

// TaskContainer is the per-node runtime built by Pipeline.Build. It owns
// the node instance, the typed input queues and output callback lists taken
// over from the connection helper, and the node's options store, and it
// drives single firings of the node's Run step.
type TaskContainer struct {
	name string
	task Task

	slots []InputPort
	outs  []OutputPort
	opts  *Options

	constraints ThreadGroup
	followers   []follower

	fired    atomic.Bool
	inFlight atomic.Bool
	finished atomic.Bool
}

func newTaskContainer(name string, task Task, helper *connectionHelper, constraints ThreadGroup, opts *Options) *TaskContainer {
	return &TaskContainer{
		name:        name,
		task:        task,
		slots:       helper.queue(),
		outs:        helper.callbacks(),
		opts:        opts,
		constraints: constraints,
	}
}

func (t *TaskContainer) Name() string {
	return t.name
}

func (t *TaskContainer) Constraints() ThreadGroup {
	return t.constraints
}

func (t *TaskContainer) Options() *Options {
	return t.opts
}

// setNotify installs the scheduler's activity callback: it fires on every
// push into one of the container's queues and on every exhaustion signal.
func (t *TaskContainer) setNotify(fn func()) {
	for _, slot := range t.slots {
		slot.setOnPush(fn)
	}
}

// CanRun reports whether a firing may be dispatched: one element is pending
// on every input queue. A node with no declared inputs is runnable exactly
// once.
func (t *TaskContainer) CanRun() bool {
	if t.finished.Load() {
		return false
	}
	if len(t.slots) == 0 {
		return !t.fired.Load()
	}
	for _, slot := range t.slots {
		if slot.pending() == 0 {
			return false
		}
	}
	return true
}

// Run performs one firing: dequeue the head of every input queue in slot
// order, stage the values, invoke the node's Run step. Fan-out happens
// inside Run through the node's output ports. The caller guarantees that at
// most one firing per container is in flight.
func (t *TaskContainer) Run(ctx context.Context) error {
	t.inFlight.Store(true)
	defer t.inFlight.Store(false)

	for _, slot := range t.slots {
		if !slot.popHead() {
			return fmt.Errorf("node %q: input %q fired while empty", t.name, slot.Name())
		}
	}

	if err := t.task.Run(ctx); err != nil {
		return fmt.Errorf("node %q: %w", t.name, err)
	}
	t.fired.Store(true)
	return nil
}

// IsFinished reports whether no further firing can ever happen: every input
// is exhausted (its producer signalled completion and its queue is empty).
// A node with no declared inputs is finished after its single firing.
func (t *TaskContainer) IsFinished() bool {
	return t.finished.Load()
}

// refreshFinished re-evaluates the termination condition and latches it.
// Reports whether the container transitioned to finished in this call.
func (t *TaskContainer) refreshFinished() bool {
	if t.finished.Load() {
		return false
	}
	// While a firing is in flight its outputs have not landed downstream
	// yet; latching finished now would let followers finish early and drop
	// the in-flight values.
	if t.inFlight.Load() {
		return false
	}
	if len(t.slots) == 0 {
		if !t.fired.Load() {
			return false
		}
		t.finished.Store(true)
		return true
	}
	for _, slot := range t.slots {
		if !slot.done() || slot.pending() > 0 {
			return false
		}
	}
	t.finished.Store(true)
	return true
}

// markUpstreamDone records that the producer feeding the given input slot
// has finished.
func (t *TaskContainer) markUpstreamDone(slot int) {
	t.slots[slot].signalDone()
}

// Close releases the node's resources, if it holds any.
func (t *TaskContainer) Close() error {
	if c, ok := t.task.(Closer); ok {
		return c.Close()
	}
	return nil
}
