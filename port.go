package taskgraph

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// InputPort is the type-erased view of an Input[T]. User code only ever
// holds the typed form; the erased interface exists so configurators,
// helpers and containers can treat all slots uniformly. The unexported
// methods keep the set of implementations closed.
type InputPort interface {
	ID() PortID
	Name() string
	Source() OutputPort
	External() bool

	elem() reflect.Type
	setSource(OutputPort) error
	markExternal()
	pusher() any
	popHead() bool
	pending() int
	signalDone()
	done() bool
	setOnPush(func())
}

// OutputPort is the type-erased view of an Output[T].
type OutputPort interface {
	ID() PortID
	Name() string

	elem() reflect.Type
	appendRaw(raw any) error
	freeze()
	callbackCount() int
}

// Input is a typed input port. Create one per run parameter in the task's
// constructor and return it from Inputs(), in parameter order.
type Input[T any] struct {
	id       PortID
	name     string
	src      OutputPort
	external bool

	q        queue[T]
	cur      T
	doneFlag atomic.Bool
}

func NewInput[T any](name string) *Input[T] {
	return &Input[T]{id: ID(name), name: name}
}

func (in *Input[T]) ID() PortID         { return in.id }
func (in *Input[T]) Name() string       { return in.name }
func (in *Input[T]) Source() OutputPort { return in.src }
func (in *Input[T]) External() bool     { return in.external }

// Value returns the element staged for the current firing. Only valid
// inside the task's Run step.
func (in *Input[T]) Value() T {
	return in.cur
}

func (in *Input[T]) elem() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (in *Input[T]) setSource(out OutputPort) error {
	if in.src != nil {
		return fmt.Errorf("input %q: %w", in.name, ErrAlreadyBound)
	}
	in.src = out
	return nil
}

func (in *Input[T]) markExternal() {
	in.external = true
}

// pusher returns the typed closure that enqueues onto this input's queue.
// It crosses the helper boundary as `any` and is reasserted to func(T) on
// the producing side.
func (in *Input[T]) pusher() any {
	fn := func(v T) {
		in.q.push(v)
	}
	return fn
}

func (in *Input[T]) popHead() bool {
	v, ok := in.q.pop()
	if !ok {
		return false
	}
	in.cur = v
	return true
}

func (in *Input[T]) pending() int {
	return in.q.len()
}

// signalDone records that no further value can arrive: the upstream
// container finished, or the external writer sent its last-element signal.
func (in *Input[T]) signalDone() {
	in.doneFlag.Store(true)
	in.q.mu.Lock()
	fn := in.q.onPush
	in.q.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (in *Input[T]) done() bool {
	return in.doneFlag.Load()
}

func (in *Input[T]) setOnPush(fn func()) {
	in.q.setOnPush(fn)
}

// Output is a typed output port. Create one per run result in the task's
// constructor and return it from Outputs(), in result order.
type Output[T any] struct {
	id   PortID
	name string

	callbacks []func(T)
	frozen    bool
}

func NewOutput[T any](name string) *Output[T] {
	return &Output[T]{id: ID(name), name: name}
}

func (o *Output[T]) ID() PortID   { return o.id }
func (o *Output[T]) Name() string { return o.name }

// Bind connects this output to a downstream input. The shared type
// parameter makes mismatched element types a compile error. The binding is
// resolved into an actual queue pusher by Pipeline.Build.
func (o *Output[T]) Bind(in *Input[T]) error {
	return in.setSource(o)
}

// Emit fans a value out to every callback, in registration order. Valid
// inside the task's Run step; the callback list is frozen at build time, so
// no locking happens here.
func (o *Output[T]) Emit(v T) {
	for _, cb := range o.callbacks {
		cb(v)
	}
}

func (o *Output[T]) elem() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (o *Output[T]) appendRaw(raw any) error {
	if o.frozen {
		return fmt.Errorf("output %q: callback list frozen after build", o.name)
	}
	cb, ok := raw.(func(T))
	if !ok {
		return fmt.Errorf("output %q: callback is %T: %w", o.name, raw, ErrTypeMismatch)
	}
	o.callbacks = append(o.callbacks, cb)
	return nil
}

func (o *Output[T]) freeze() {
	o.frozen = true
}

func (o *Output[T]) callbackCount() int {
	return len(o.callbacks)
}

// Connect is the type-erased counterpart of Output.Bind, for wiring code
// that only holds erased ports. The element types are checked at bind time.
func Connect(out OutputPort, in InputPort) error {
	if out.elem() != in.elem() {
		return fmt.Errorf("bind %q -> %q: have %s, want %s: %w",
			out.Name(), in.Name(), out.elem(), in.elem(), ErrTypeMismatch)
	}
	return in.setSource(out)
}
