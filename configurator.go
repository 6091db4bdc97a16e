package taskgraph

import "fmt"

// WriteFunc feeds an external input. Calling it with last == false enqueues
// the value; calling it with last == true signals that no further value
// will arrive (the value argument is ignored on that call). The last-signal
// is one-shot.
type WriteFunc[T any] func(value T, last bool)

// Configurator is the build-time, per-node surface of a pipeline. It is
// created by Pipeline.Add and owns the node's port slots, listener lists,
// thread-constraint set and options store until Build transfers them into
// the task container.
type Configurator struct {
	name string
	task Task

	inputs  []InputPort
	outputs []OutputPort
	inByID  map[PortID]InputPort
	outByID map[PortID]OutputPort

	constraints ThreadGroup
	writers     map[PortID]any
	opts        *Options
}

func newConfigurator(name string, task Task) (*Configurator, error) {
	c := &Configurator{
		name:    name,
		task:    task,
		inputs:  task.Inputs(),
		outputs: task.Outputs(),
		inByID:  map[PortID]InputPort{},
		outByID: map[PortID]OutputPort{},
		writers: map[PortID]any{},
	}

	for _, in := range c.inputs {
		if _, exists := c.inByID[in.ID()]; exists {
			return nil, fmt.Errorf("node %q: input %q: %w", name, in.Name(), ErrDuplicatePort)
		}
		c.inByID[in.ID()] = in
	}
	for _, out := range c.outputs {
		if _, exists := c.outByID[out.ID()]; exists {
			return nil, fmt.Errorf("node %q: output %q: %w", name, out.Name(), ErrDuplicatePort)
		}
		c.outByID[out.ID()] = out
	}

	if tc, ok := task.(ThreadConstrained); ok {
		c.constraints.Union(tc.ThreadConstraints())
	}
	if opt, ok := task.(Optioned); ok {
		c.opts = opt.Options()
	} else {
		c.opts = NewOptions()
	}

	return c, nil
}

func (c *Configurator) Name() string {
	return c.name
}

// Input looks up an input port by its declared name.
func (c *Configurator) Input(name string) (InputPort, error) {
	return c.InputByID(ID(name))
}

func (c *Configurator) InputByID(id PortID) (InputPort, error) {
	in, ok := c.inByID[id]
	if !ok {
		return nil, fmt.Errorf("node %q: input %#x: %w", c.name, uint64(id), ErrSlotNotFound)
	}
	return in, nil
}

// Output looks up an output port by its declared name.
func (c *Configurator) Output(name string) (OutputPort, error) {
	return c.OutputByID(ID(name))
}

func (c *Configurator) OutputByID(id PortID) (OutputPort, error) {
	out, ok := c.outByID[id]
	if !ok {
		return nil, fmt.Errorf("node %q: output %#x: %w", c.name, uint64(id), ErrSlotNotFound)
	}
	return out, nil
}

// AddThreadConstraint unions the given groups into the node's constraint
// set.
func (c *Configurator) AddThreadConstraint(group ThreadGroup) {
	c.constraints.Union(group)
}

func (c *Configurator) ThreadConstraints() ThreadGroup {
	return c.constraints
}

// Options returns the node's options store.
func (c *Configurator) Options() *Options {
	return c.opts
}

func (c *Configurator) constructConnectionHelper() *connectionHelper {
	return newConnectionHelper(c.inputs, c.outputs)
}

func (c *Configurator) constructTaskContainer(helper *connectionHelper) *TaskContainer {
	return newTaskContainer(c.name, c.task, helper, c.constraints, c.opts)
}

// External marks the input with the given name as external and returns the
// writer used to feed it. External inputs are skipped when Build resolves
// bindings; the returned closure is their only ingress. Idempotent: calling
// External twice for the same input returns the same writer.
func External[T any](c *Configurator, name string) (WriteFunc[T], error) {
	in, err := c.Input(name)
	if err != nil {
		return nil, err
	}
	if w, ok := c.writers[in.ID()]; ok {
		writer, ok := w.(WriteFunc[T])
		if !ok {
			return nil, fmt.Errorf("node %q: input %q: external writer is %T: %w", c.name, name, w, ErrTypeMismatch)
		}
		return writer, nil
	}

	typed, ok := in.(*Input[T])
	if !ok {
		return nil, fmt.Errorf("node %q: input %q: element type is %s: %w", c.name, name, in.elem(), ErrTypeMismatch)
	}

	in.markExternal()
	writer := WriteFunc[T](func(v T, last bool) {
		if last {
			typed.signalDone()
			return
		}
		typed.q.push(v)
	})
	c.writers[in.ID()] = writer
	return writer, nil
}

// MustExternal is External, panicking on error. Useful in wiring code where
// the port name is a literal.
func MustExternal[T any](c *Configurator, name string) WriteFunc[T] {
	w, err := External[T](c, name)
	if err != nil {
		panic(err)
	}
	return w
}

// Listen appends fn to the callback list of the output with the given name.
// Listeners are plain callbacks on the output's fan-out list, invoked in
// registration order before the pushers Build appends for bound inputs.
func Listen[T any](c *Configurator, name string, fn func(T)) error {
	out, err := c.Output(name)
	if err != nil {
		return err
	}
	if err := out.appendRaw(fn); err != nil {
		return fmt.Errorf("node %q: %w", c.name, err)
	}
	return nil
}

// MustListen is Listen, panicking on error.
func MustListen[T any](c *Configurator, name string, fn func(T)) {
	if err := Listen(c, name, fn); err != nil {
		panic(err)
	}
}
