package taskgraph

import "context"

// Task is a node in the pipeline. A task declares its typed ports once, at
// construction, and returns them in declaration order; the slot order of
// Inputs() and Outputs() is the order in which a firing consumes and emits
// values.
//
// Run performs one firing: every input port has exactly one staged value
// (read it with Input.Value), and emitting on an output port fans the value
// out to every bound downstream queue and listener. Task does not know about
// any concrete element types; those are hidden inside the port objects, so
// the rest of the machinery can treat all tasks uniformly.
type Task interface {
	Run(ctx context.Context) error
	Inputs() []InputPort
	Outputs() []OutputPort
}

// ThreadConstrained tasks declare the worker groups allowed to execute them.
// The constraint set can be widened per node via
// Configurator.AddThreadConstraint.
type ThreadConstrained interface {
	ThreadConstraints() ThreadGroup
}

// Optioned tasks provide a pre-populated options store. The same store is
// reachable through Configurator.Options and stays mutable while the
// pipeline runs.
type Optioned interface {
	Options() *Options
}

// Closer is implemented by tasks that hold resources. Close is called once
// by the scheduler after the run stops firing, whether it completed, failed
// or was cancelled; it is not called when Build or the constraint check
// fails.
type Closer interface {
	Close() error
}
