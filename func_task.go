package taskgraph

import "context"

// Closure-backed tasks, for pipelines whose steps are plain functions. Port
// names are given per port; the function signature fixes the element types.

type func0x1[A any] struct {
	out *Output[A]
	fn  func() A
}

// Func0x1 builds a source task with no inputs and one output. A node
// without inputs fires exactly once.
func Func0x1[A any](outName string, fn func() A) Task {
	return &func0x1[A]{out: NewOutput[A](outName), fn: fn}
}

func (t *func0x1[A]) Run(ctx context.Context) error {
	t.out.Emit(t.fn())
	return nil
}

func (t *func0x1[A]) Inputs() []InputPort   { return nil }
func (t *func0x1[A]) Outputs() []OutputPort { return []OutputPort{t.out} }

type func1x0[A any] struct {
	in *Input[A]
	fn func(A)
}

// Func1x0 builds a sink task with one input and no outputs.
func Func1x0[A any](inName string, fn func(A)) Task {
	return &func1x0[A]{in: NewInput[A](inName), fn: fn}
}

func (t *func1x0[A]) Run(ctx context.Context) error {
	t.fn(t.in.Value())
	return nil
}

func (t *func1x0[A]) Inputs() []InputPort   { return []InputPort{t.in} }
func (t *func1x0[A]) Outputs() []OutputPort { return nil }

type func1x1[A, B any] struct {
	in  *Input[A]
	out *Output[B]
	fn  func(A) B
}

// Func1x1 builds a task with one input and one output.
func Func1x1[A, B any](inName, outName string, fn func(A) B) Task {
	return &func1x1[A, B]{in: NewInput[A](inName), out: NewOutput[B](outName), fn: fn}
}

func (t *func1x1[A, B]) Run(ctx context.Context) error {
	t.out.Emit(t.fn(t.in.Value()))
	return nil
}

func (t *func1x1[A, B]) Inputs() []InputPort   { return []InputPort{t.in} }
func (t *func1x1[A, B]) Outputs() []OutputPort { return []OutputPort{t.out} }

type func2x1[A, B, C any] struct {
	a   *Input[A]
	b   *Input[B]
	out *Output[C]
	fn  func(A, B) C
}

// Func2x1 builds a join task with two inputs and one output. A firing
// consumes one element per input, regardless of relative arrival times.
func Func2x1[A, B, C any](aName, bName, outName string, fn func(A, B) C) Task {
	return &func2x1[A, B, C]{
		a:   NewInput[A](aName),
		b:   NewInput[B](bName),
		out: NewOutput[C](outName),
		fn:  fn,
	}
}

func (t *func2x1[A, B, C]) Run(ctx context.Context) error {
	t.out.Emit(t.fn(t.a.Value(), t.b.Value()))
	return nil
}

func (t *func2x1[A, B, C]) Inputs() []InputPort   { return []InputPort{t.a, t.b} }
func (t *func2x1[A, B, C]) Outputs() []OutputPort { return []OutputPort{t.out} }

type func1x2[A, B, C any] struct {
	in *Input[A]
	b  *Output[B]
	c  *Output[C]
	fn func(A) (B, C)
}

// Func1x2 builds a task with one input and two outputs; the function's two
// results are emitted on the two outputs in order.
func Func1x2[A, B, C any](inName, bName, cName string, fn func(A) (B, C)) Task {
	return &func1x2[A, B, C]{
		in: NewInput[A](inName),
		b:  NewOutput[B](bName),
		c:  NewOutput[C](cName),
		fn: fn,
	}
}

func (t *func1x2[A, B, C]) Run(ctx context.Context) error {
	b, c := t.fn(t.in.Value())
	t.b.Emit(b)
	t.c.Emit(c)
	return nil
}

func (t *func1x2[A, B, C]) Inputs() []InputPort   { return []InputPort{t.in} }
func (t *func1x2[A, B, C]) Outputs() []OutputPort { return []OutputPort{t.b, t.c} }
