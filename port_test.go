package taskgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBind(t *testing.T) {
	t.Run("records the source on the input", func(t *testing.T) {
		out := NewOutput[int]("out")
		in := NewInput[int]("in")

		assert.NoError(t, out.Bind(in))
		assert.True(t, in.Source() == out)
	})

	t.Run("rebinding fails", func(t *testing.T) {
		out1 := NewOutput[int]("out1")
		out2 := NewOutput[int]("out2")
		in := NewInput[int]("in")

		assert.NoError(t, out1.Bind(in))
		err := out2.Bind(in)
		assert.IsError(t, err, ErrAlreadyBound)
	})

	t.Run("fan-out to many inputs", func(t *testing.T) {
		out := NewOutput[int]("out")
		a := NewInput[int]("a")
		b := NewInput[int]("b")

		assert.NoError(t, out.Bind(a))
		assert.NoError(t, out.Bind(b))
	})
}

func TestConnect(t *testing.T) {
	t.Run("matching element types", func(t *testing.T) {
		out := NewOutput[string]("out")
		in := NewInput[string]("in")
		assert.NoError(t, Connect(out, in))
		assert.True(t, in.Source() == out)
	})

	t.Run("mismatched element types", func(t *testing.T) {
		out := NewOutput[string]("out")
		in := NewInput[int]("in")
		err := Connect(out, in)
		assert.IsError(t, err, ErrTypeMismatch)
	})
}

func TestOutputCallbacks(t *testing.T) {
	t.Run("emit invokes callbacks in registration order", func(t *testing.T) {
		out := NewOutput[int]("out")
		var got []int
		assert.NoError(t, out.appendRaw(func(v int) { got = append(got, v) }))
		assert.NoError(t, out.appendRaw(func(v int) { got = append(got, v*10) }))

		out.Emit(7)
		assert.Equal(t, []int{7, 70}, got)
	})

	t.Run("raw callback of wrong type is rejected", func(t *testing.T) {
		out := NewOutput[int]("out")
		err := out.appendRaw(func(v string) {})
		assert.IsError(t, err, ErrTypeMismatch)
	})

	t.Run("frozen list rejects further callbacks", func(t *testing.T) {
		out := NewOutput[int]("out")
		out.freeze()
		assert.Error(t, out.appendRaw(func(v int) {}))
	})

	t.Run("emit without callbacks is a no-op", func(t *testing.T) {
		out := NewOutput[int]("out")
		out.Emit(1)
	})
}

func TestInputQueueFlow(t *testing.T) {
	t.Run("pusher feeds the queue, popHead stages values", func(t *testing.T) {
		in := NewInput[int]("in")
		push := in.pusher().(func(int))

		push(1)
		push(2)
		assert.Equal(t, 2, in.pending())

		assert.True(t, in.popHead())
		assert.Equal(t, 1, in.Value())
		assert.True(t, in.popHead())
		assert.Equal(t, 2, in.Value())
		assert.False(t, in.popHead())
	})

	t.Run("signalDone latches and wakes the hook", func(t *testing.T) {
		in := NewInput[int]("in")
		var woken int
		in.setOnPush(func() { woken++ })

		assert.False(t, in.done())
		in.signalDone()
		assert.True(t, in.done())
		assert.Equal(t, 1, woken)
	})
}
